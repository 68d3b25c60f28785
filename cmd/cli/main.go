package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/downfa11-org/aesdchar/pkg/config"
	"github.com/downfa11-org/aesdchar/pkg/controller"
	"github.com/downfa11-org/aesdchar/pkg/device"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Println("Failed to load config:", err)
		os.Exit(1)
	}

	dev := device.New(device.Options{
		Name:          "aesdchar-cli",
		MaxWriteOps:   cfg.MaxWriteOps,
		Terminator:    cfg.TerminatorByte(),
		MaxRecordSize: cfg.MaxRecordSize,
	})
	defer dev.Close()

	h, err := dev.Open()
	if err != nil {
		fmt.Println("Failed to open device:", err)
		os.Exit(1)
	}
	defer h.Close()

	ch := controller.NewCommandHandler(dev, cfg.TerminatorByte())
	ctx := controller.NewClientContext(h)

	fmt.Printf("Device ready (%d writes retained). Type HELP for commands.\n\n", cfg.MaxWriteOps)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.EqualFold(strings.TrimSpace(line), "EXIT") {
			break
		}
		fmt.Println(ch.HandleCommand(line, ctx))
	}
}
