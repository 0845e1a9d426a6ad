package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devtty/rl78boot/driver"
	"github.com/devtty/rl78boot/flash"
	"github.com/devtty/rl78boot/serialport"
)

// waitForKeypress blocks on stdin; used when the operator is asked to
// power the target manually before the entry sequence proceeds.
func waitForKeypress() {
	fmt.Fprint(os.Stderr, "Turn MCU's power on and press Enter...")
	bufio.NewReader(os.Stdin).ReadString('\n')
}

// barProgress adapts a progressbar to driver.ProgressCallback, setting it
// to the block count reported at the start and at the end of the operation.
func barProgress(bar *progressbar.ProgressBar) driver.ProgressCallback {
	return func(p driver.Progress) {
		_ = bar.Set(p.Block)
	}
}

func openDriver(waitForPower bool, progress driver.ProgressCallback) (*serialport.Adapter, *driver.Driver, error) {
	name, err := portName()
	if err != nil {
		return nil, nil, err
	}

	adapter, err := serialport.Open(name)
	if err != nil {
		return nil, nil, err
	}

	opts := []driver.Option{
		driver.WithLogger(newLogrusAdapter(log)),
		driver.WithVoltage(byte(viper.GetFloat64("voltage") * 10)),
	}
	if progress != nil {
		opts = append(opts, driver.WithProgressCallback(progress))
	}
	d := driver.New(adapter, opts...)

	var keypress func()
	if waitForPower {
		keypress = waitForKeypress
	}
	if err := d.Enter(context.Background(), sessionMode(), waitForPower, keypress, viper.GetInt("baud")); err != nil {
		_ = adapter.Close()
		return nil, nil, fmt.Errorf("enter bootloader: %w", err)
	}
	return adapter, d, nil
}

func newIdentifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identify",
		Short: "Read and print the target's silicon signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, d, err := openDriver(false, nil)
			if err != nil {
				return err
			}
			defer adapter.Close()

			id, err := d.Identify(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("device:     %s\n", id.Name)
			fmt.Printf("code flash: %d bytes\n", id.CodeFlashSize)
			fmt.Printf("data flash: %d bytes\n", id.DataFlashSize)
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the target back into application mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := portName()
			if err != nil {
				return err
			}
			adapter, err := serialport.Open(name)
			if err != nil {
				return err
			}
			defer adapter.Close()

			d := driver.New(adapter, driver.WithLogger(newLogrusAdapter(log)))
			return d.Reset(context.Background(), sessionMode())
		},
	}
}

func newChecksumCmd() *cobra.Command {
	var start, end uint32
	cmd := &cobra.Command{
		Use:   "checksum",
		Short: "Read the target's checksum over an address range",
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, d, err := openDriver(false, nil)
			if err != nil {
				return err
			}
			defer adapter.Close()

			sum, err := d.Checksum(context.Background(), start, end)
			if err != nil {
				return err
			}
			fmt.Printf("checksum: 0x%04X\n", sum)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&start, "start", 0, "range start address")
	cmd.Flags().Uint32Var(&end, "end", 0, "range end address")
	return cmd
}

func newEraseCmd() *cobra.Command {
	var start uint32
	var size int
	var wait bool
	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Erase a flash range",
		RunE: func(cmd *cobra.Command, args []string) error {
			bar := progressbar.Default(int64(size / flash.BlockSize))
			adapter, d, err := openDriver(wait, barProgress(bar))
			if err != nil {
				return err
			}
			defer adapter.Close()

			return d.Erase(context.Background(), start, size)
		},
	}
	cmd.Flags().Uint32Var(&start, "start", 0, "erase range start address")
	cmd.Flags().IntVar(&size, "size", 0, "erase range size in bytes")
	cmd.Flags().BoolVar(&wait, "wait-for-power", false, "prompt before driving RESET")
	return cmd
}

func newProgramCmd() *cobra.Command {
	var file string
	var start uint32
	var wait bool
	var verify bool
	cmd := &cobra.Command{
		Use:   "program",
		Short: "Program a flash image and optionally verify it",
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadImage(file, start)
			if err != nil {
				return err
			}

			bar := progressbar.Default(int64(img.NumBlocks()))
			adapter, d, err := openDriver(wait, barProgress(bar))
			if err != nil {
				return err
			}
			defer adapter.Close()

			if err := d.Program(context.Background(), img); err != nil {
				return fmt.Errorf("program: %w", err)
			}
			if verify {
				if err := d.Verify(context.Background(), img); err != nil {
					return fmt.Errorf("verify: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "firmware image (.hex or raw binary)")
	cmd.Flags().Uint32Var(&start, "start", 0, "image start address (binary files only)")
	cmd.Flags().BoolVar(&wait, "wait-for-power", false, "prompt before driving RESET")
	cmd.Flags().BoolVar(&verify, "verify", true, "verify after programming")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var file string
	var start uint32
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify flash contents against an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadImage(file, start)
			if err != nil {
				return err
			}

			bar := progressbar.Default(int64(img.NumBlocks()))
			adapter, d, err := openDriver(false, barProgress(bar))
			if err != nil {
				return err
			}
			defer adapter.Close()

			return d.Verify(context.Background(), img)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "firmware image (.hex or raw binary)")
	cmd.Flags().Uint32Var(&start, "start", 0, "image start address (binary files only)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
