package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend"
	"github.com/dweymouth/duoplay/res"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPlayer(refs []string) error {
	myApp, err := backend.StartupApp(res.AppName, res.DisplayName, refs)
	if errors.Is(err, backend.ErrAnotherInstance) {
		return nil
	}
	if err != nil {
		log.Error("fatal startup error", "err", err)
		return err
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		myApp.OnReadout = func(readout string) {
			// rewrite the line in place
			fmt.Fprintf(os.Stdout, "\r%s\033[K", readout)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		myApp.Quit()
	}()

	myApp.Start()
	<-myApp.Wait()
	if myApp.OnReadout != nil {
		fmt.Fprintln(os.Stdout)
	}
	myApp.Shutdown()
	return nil
}
