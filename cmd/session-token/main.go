// Command session-token prints a signed session token for a user id, for
// calling the write endpoints during local development.
package main

import (
	"flag"
	"fmt"
	"os"

	"eventrea/internal/config"
	"eventrea/internal/lib/session"
)

func main() {
	userID := flag.String("user", "", "user id to put in the token")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: session-token -user <id>")
		os.Exit(2)
	}

	cfg := config.MustLoad()

	sessions, err := session.New(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	token, err := sessions.Issue(*userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(token)
}
