/*
Lrkserver runs the authenticated HTTP build service: POST a grammar and get
back a built table, or parse text against a table already built, without
invoking the generator/parser binaries directly.

Usage:

	lrkserver --config FILE [--register USER:PASS]

The flags are:

	-c, --config FILE
		Read server configuration (listen address, JWT secret, data
		directory, default k) from this TOML file. Required.

	-r, --register USER:PASS
		Create a user account with the given username and password, then
		exit without starting the server. Useful for bootstrapping the first
		account.
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/dekarrin/lrk/internal/lrkservice"
	"github.com/dekarrin/lrk/internal/version"
	"github.com/spf13/pflag"
)

const (
	ExitSuccess = iota
	ExitConfigError
	ExitServerError
)

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Gives the version info")
	configFile  = pflag.StringP("config", "c", "", "The TOML config file to read server settings from (required)")
	register    = pflag.StringP("register", "r", "", "Create a user account as USER:PASS and exit")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --config is required")
		returnCode = ExitConfigError
		return
	}

	cfg, err := lrkservice.LoadConfigFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitConfigError
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: invalid config: %s\n", err.Error())
		returnCode = ExitConfigError
		return
	}

	svc, err := lrkservice.NewService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitServerError
		return
	}
	defer svc.Close()

	if *register != "" {
		parts := strings.SplitN(*register, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			fmt.Fprintln(os.Stderr, "ERROR: --register must be in USER:PASS form")
			returnCode = ExitConfigError
			return
		}
		user, err := svc.Register(context.Background(), parts[0], parts[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitServerError
			return
		}
		fmt.Printf("registered user %q (%s)\n", user.Username, user.ID)
		return
	}

	api := lrkservice.API{Backend: svc, UnauthDelay: cfg.UnauthDelay()}

	log.Printf("lrkserver listening on %s", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, api.Routes()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitServerError
	}
}
