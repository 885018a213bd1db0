package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	apiAddr := strings.TrimSpace(os.Getenv("ADDR"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	stateFile := strings.TrimSpace(os.Getenv("STATE_FILE"))

	if admin == "" {
		warn("ADMIN_API_KEYS is empty — incident mutations will be open to anyone.")
	}
	if pub == "" {
		warn("PUBLIC_API_KEYS is empty — read routes and /stream will be open to anyone.")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if apiAddr == "" {
		warn("ADDR is empty; default in your app may be used.")
	} else {
		ok("ADDR=" + apiAddr)
	}

	if db != "" {
		ok("DATABASE_URL present — state goes to postgres")
	} else {
		if stateFile == "" {
			stateFile = "data/monitor.json"
		}
		dir := filepath.Dir(stateFile)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fail("cannot create state dir " + dir + ": " + err.Error())
		}
		probe := filepath.Join(dir, ".preflight")
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			fail("state dir " + dir + " is not writable: " + err.Error())
		}
		_ = os.Remove(probe)
		ok("state file dir writable: " + dir)
	}

	ok("preflight passed")
}
