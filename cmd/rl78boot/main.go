// Command rl78boot flashes RL78 microcontrollers over their single/two-wire
// UART bootloader protocol.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/devtty/rl78boot/entry"
)

var (
	cfgFile string
	log     = logrus.New()

	flagPort        string
	flagBaud        int
	flagVoltage     float64
	flagOneWire     bool
	flagResetRTS    bool
	flagInvertReset bool
	flagVerbose     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rl78boot",
		Short: "Flash RL78 microcontrollers over their UART bootloader",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagVerbose {
				log.SetLevel(logrus.DebugLevel)
			}
			return loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./rl78boot.yaml)")
	root.PersistentFlags().StringVarP(&flagPort, "port", "p", "", "serial port device")
	root.PersistentFlags().IntVarP(&flagBaud, "baud", "b", 115200, "target baud rate after handshake")
	root.PersistentFlags().Float64Var(&flagVoltage, "voltage", 3.3, "target supply voltage")
	root.PersistentFlags().BoolVar(&flagOneWire, "one-wire", true, "use single-wire UART mode (two-wire if false)")
	root.PersistentFlags().BoolVar(&flagResetRTS, "reset-rts", false, "drive RESET via RTS instead of DTR")
	root.PersistentFlags().BoolVar(&flagInvertReset, "invert-reset", false, "invert the RESET line's logical sense")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	_ = viper.BindPFlag("port", root.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("baud", root.PersistentFlags().Lookup("baud"))
	_ = viper.BindPFlag("voltage", root.PersistentFlags().Lookup("voltage"))

	root.AddCommand(
		newProgramCmd(),
		newEraseCmd(),
		newVerifyCmd(),
		newIdentifyCmd(),
		newResetCmd(),
		newChecksumCmd(),
	)
	return root
}

func loadConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rl78boot")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func resetLine() entry.ResetLine {
	if flagResetRTS {
		return entry.ResetViaRTS
	}
	return entry.ResetViaDTR
}

func sessionMode() entry.Mode {
	return entry.Mode{
		OneWire:     flagOneWire,
		ResetLine:   resetLine(),
		InvertReset: flagInvertReset,
	}
}

func portName() (string, error) {
	p := viper.GetString("port")
	if p == "" {
		return "", fmt.Errorf("--port is required (or set \"port\" in rl78boot.yaml)")
	}
	return p, nil
}
