package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// minTokenLength is the shortest access token accepted.
const minTokenLength = 12

var (
	errTokenMismatch = errors.New("tokens do not match")
	errTokenTooShort = fmt.Errorf("token must be at least %d characters", minTokenLength)
	errNoHash        = errors.New("ACCESS_TOKEN_HASH is not set")
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "hash":
		if !runHash(os.Stdout, readSecret) {
			os.Exit(1)
		}
	case "verify":
		if !runVerify(os.Stdout, os.Getenv("ACCESS_TOKEN_HASH"), readSecret) {
			os.Exit(1)
		}
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - input is sanitized via allowlist in sanitizeCommand
		printUsage(os.Stdout)
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It replaces any character that is not alphanumeric, a hyphen, or an
// underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Photo Library Access Token Tool")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: hashtoken <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  hash    - Hash a new access token for ACCESS_TOKEN_HASH")
	fmt.Fprintln(w, "  verify  - Check a token against ACCESS_TOKEN_HASH")
}

// secretReader prompts for and reads one secret without echo.
type secretReader func(prompt string) ([]byte, error)

func readSecret(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	return secret, err
}

func runHash(out io.Writer, read secretReader) bool {
	token, err := read("Access token: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading token: %v\n", err)
		return false
	}
	confirm, err := read("Confirm token: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading token: %v\n", err)
		return false
	}

	if err := validateToken(token, confirm); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	hash, err := hashToken(token, bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to hash token: %v\n", err)
		return false
	}

	fmt.Fprintln(out, "Set this value as ACCESS_TOKEN_HASH:")
	fmt.Fprintln(out, hash)
	return true
}

func runVerify(out io.Writer, hash string, read secretReader) bool {
	if hash == "" {
		fmt.Fprintf(os.Stderr, "Error: %v\n", errNoHash)
		return false
	}

	token, err := read("Access token: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading token: %v\n", err)
		return false
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), token); err != nil {
		fmt.Fprintln(out, "Token does not match ACCESS_TOKEN_HASH.")
		return false
	}
	fmt.Fprintln(out, "Token matches ACCESS_TOKEN_HASH.")
	return true
}

func validateToken(token, confirm []byte) error {
	if !bytes.Equal(token, confirm) {
		return errTokenMismatch
	}
	if len(bytes.TrimSpace(token)) < minTokenLength {
		return errTokenTooShort
	}
	return nil
}

func hashToken(token []byte, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(token, cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
