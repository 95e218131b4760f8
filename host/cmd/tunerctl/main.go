package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/shlex"

	"goecu/host/serial"
	"goecu/host/tuner"
)

var (
	device = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud   = flag.Int("baud", 115200, "Baud rate")
)

func main() {
	flag.Parse()

	fmt.Println("tunerctl - interactive ECU tuner client")
	fmt.Println("========================================")

	client := tuner.NewClient()
	fmt.Printf("Connecting to %s...\n", *device)
	if err := client.ConnectWithConfig(&serial.Config{Device: *device, Baud: *baud, ReadTimeout: 200}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()
	fmt.Println("Connected.")

	fmt.Println("Type 'help' for available commands, 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(parts) == 0 {
			continue
		}

		if err := dispatch(client, parts); err != nil {
			if err == errQuit {
				fmt.Println("Goodbye!")
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

var errQuit = fmt.Errorf("quit")

func dispatch(client *tuner.Client, parts []string) error {
	switch parts[0] {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		printHelp()
		return nil

	case "id":
		id, err := client.Identify()
		if err != nil {
			return err
		}
		fmt.Printf("identifier: %s\n", id)
		return nil

	case "livedata":
		ld, err := client.LiveData()
		if err != nil {
			return err
		}
		printLiveData(ld)
		return nil

	case "read":
		if len(parts) != 4 {
			return fmt.Errorf("usage: read <page> <offset> <length>")
		}
		page, offset, length, err := parsePageArgs(parts[1], parts[2], parts[3])
		if err != nil {
			return err
		}
		data, err := client.ReadPage(page, offset, length)
		if err != nil {
			return err
		}
		fmt.Printf("% x\n", data)
		return nil

	case "write":
		if len(parts) < 4 {
			return fmt.Errorf("usage: write <page> <offset> <byte> [byte...]")
		}
		page, offset, err := parsePageOffset(parts[1], parts[2])
		if err != nil {
			return err
		}
		data := make([]byte, 0, len(parts)-3)
		for _, tok := range parts[3:] {
			v, err := strconv.ParseUint(tok, 0, 8)
			if err != nil {
				return fmt.Errorf("bad byte %q: %w", tok, err)
			}
			data = append(data, byte(v))
		}
		if err := client.WritePage(page, offset, data); err != nil {
			return err
		}
		fmt.Println("OK")
		return nil

	case "crc":
		if len(parts) != 2 {
			return fmt.Errorf("usage: crc <page>")
		}
		page, err := strconv.ParseUint(parts[1], 0, 8)
		if err != nil {
			return fmt.Errorf("bad page %q: %w", parts[1], err)
		}
		crc, err := client.PageCRC(uint8(page))
		if err != nil {
			return err
		}
		fmt.Printf("crc32: %#08x\n", crc)
		return nil

	case "burn":
		if err := client.Burn(); err != nil {
			return err
		}
		fmt.Println("burned to non-volatile storage")
		return nil

	default:
		fmt.Printf("unknown command: %s (type 'help' for available commands)\n", parts[0])
		return nil
	}
}

func parsePageArgs(pageTok, offsetTok, lengthTok string) (uint8, uint16, uint16, error) {
	page, offset, err := parsePageOffset(pageTok, offsetTok)
	if err != nil {
		return 0, 0, 0, err
	}
	length, err := strconv.ParseUint(lengthTok, 0, 16)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad length %q: %w", lengthTok, err)
	}
	return page, offset, uint16(length), nil
}

func parsePageOffset(pageTok, offsetTok string) (uint8, uint16, error) {
	page, err := strconv.ParseUint(pageTok, 0, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("bad page %q: %w", pageTok, err)
	}
	offset, err := strconv.ParseUint(offsetTok, 0, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad offset %q: %w", offsetTok, err)
	}
	return uint8(page), uint16(offset), nil
}

func printLiveData(ld [126]byte) {
	rpm := uint16(ld[14]) | uint16(ld[15])<<8
	mapKPa := (uint16(ld[4]) | uint16(ld[5])<<8) / 10
	coolant := int16(ld[7]) - 40
	advance := int16(ld[24]) - 40
	fmt.Printf("rpm=%d map=%dkPa coolant=%dC advance=%d tps=%d%%\n", rpm, mapKPa, coolant, advance, ld[25])
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  id                          - read the ECU identifier string")
	fmt.Println("  livedata                    - fetch one live-data snapshot")
	fmt.Println("  read  <page> <off> <len>    - read calibration bytes")
	fmt.Println("  write <page> <off> <b...>   - write calibration bytes")
	fmt.Println("  crc   <page>                - checksum a calibration page")
	fmt.Println("  burn                        - persist calibration to non-volatile storage")
	fmt.Println("  quit/exit/q                 - exit the program")
	fmt.Println()
}
