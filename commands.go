package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dweymouth/duoplay/backend"
	"github.com/dweymouth/duoplay/backend/ipc"
	"github.com/dweymouth/duoplay/backend/mediaprovider/httpsource"
	"github.com/dweymouth/duoplay/res"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     res.AppName + " [ref...]",
	Short:   "Play the audio and video streams of an item in sync",
	Version: res.AppVersion,
	Long: `Plays items given by reference (e.g. a video page URL). The audio stream is the
playback clock and the video stream follows it. If an instance is already running,
the refs are handed over to it.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlayer(args)
	},
}

func init() {
	rootCmd.AddCommand(
		simpleCommand("play", "Unpause or begin playback", (*ipc.Client).Play),
		simpleCommand("pause", "Pause playback", (*ipc.Client).Pause),
		simpleCommand("play-pause", "Toggle play/pause state", (*ipc.Client).PlayPause),
		simpleCommand("next", "Skip to the next item", (*ipc.Client).Next),
		simpleCommand("previous", "Go back to the previous item", (*ipc.Client).Previous),
		simpleCommand("show", "Show the video window", (*ipc.Client).Show),
		simpleCommand("hide", "Minimize the video window", (*ipc.Client).Hide),
		simpleCommand("quit", "Quit the running instance", (*ipc.Client).Quit),
		secondsCommand("seek-to", "Seek to the given position in seconds", (*ipc.Client).SeekTo),
		secondsCommand("seek-by", "Seek back or forward by the given number of seconds", (*ipc.Client).SeekBy),
		volumeCmd,
		loopCmd,
		statusCmd,
		tokenCmd,
	)
}

// connects to the running instance
func connect() (*ipc.Client, error) {
	cli, err := ipc.Connect()
	if err != nil {
		return nil, fmt.Errorf("no running instance: %w", err)
	}
	return cli, nil
}

func simpleCommand(name, short string, f func(*ipc.Client) error) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := connect()
			if err != nil {
				return err
			}
			return f(cli)
		},
	}
}

func secondsCommand(name, short string, f func(*ipc.Client, float64) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <seconds>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secs, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid seconds %q: %w", args[0], err)
			}
			cli, err := connect()
			if err != nil {
				return err
			}
			return f(cli, secs)
		},
	}
}

var volumeCmd = &cobra.Command{
	Use:   "volume <0-100>",
	Short: "Set the playback volume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
		if err != nil {
			return fmt.Errorf("invalid volume %q: %w", args[0], err)
		}
		cli, err := connect()
		if err != nil {
			return err
		}
		applied, err := cli.SetVolume(pct / 100)
		if err != nil {
			return err
		}
		cmd.Printf("volume %.0f%%\n", applied*100)
		return nil
	},
}

var loopCmd = &cobra.Command{
	Use:       "loop [on|off]",
	Short:     "Set or toggle looping of the current item",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var on *bool
		if len(args) == 1 {
			b, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			on = &b
		}
		cli, err := connect()
		if err != nil {
			return err
		}
		loop, err := cli.SetLoop(on)
		if err != nil {
			return err
		}
		cmd.Printf("loop %s\n", onOff(loop))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of the running instance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := connect()
		if err != nil {
			return err
		}
		st, err := cli.Status()
		if err != nil {
			return err
		}
		state := "paused"
		if st.Playing {
			state = "playing"
		}
		cmd.Printf("%s  %s  [%s]\n", st.Readout, st.Title, state)
		cmd.Printf("volume %.0f%%  loop %s\n", st.Volume*100, onOff(st.Loop))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token [value]",
	Short: "Store the item source API token in the system keyring, or clear it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := ""
		if len(args) == 1 {
			token = args[0]
		}
		if err := httpsource.StoreToken(res.AppName, backend.KeyringTokenUser, token); err != nil {
			return fmt.Errorf("error writing keyring credentials: %w", err)
		}
		return nil
	},
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
