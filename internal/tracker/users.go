package tracker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrNoInput is returned when the prompt input ends before a valid choice.
var ErrNoInput = errors.New("no user selected: input closed")

// ListUsers returns the names of the immediate subdirectories of dir.
func ListUsers(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	users := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			users = append(users, entry.Name())
		}
	}
	return users, nil
}

// SelectUser picks one of users. A single user is returned without prompting;
// otherwise a numbered list is written to out and a 1-based choice is read from
// in until it is valid.
func SelectUser(in io.Reader, out io.Writer, users []string) (string, error) {
	switch len(users) {
	case 0:
		return "", fmt.Errorf("no users to select from")
	case 1:
		if _, err := fmt.Fprintf(out, "Found user: %s\n", users[0]); err != nil {
			return "", err
		}
		return users[0], nil
	}

	if _, err := fmt.Fprintln(out, "Available users:"); err != nil {
		return "", err
	}
	for i, user := range users {
		if _, err := fmt.Fprintf(out, "  %d. %s\n", i+1, user); err != nil {
			return "", err
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		if _, err := fmt.Fprint(out, "Select user (number): "); err != nil {
			return "", err
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("failed to read choice: %w", err)
			}
			return "", ErrNoInput
		}
		idx, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err == nil && idx >= 1 && idx <= len(users) {
			return users[idx-1], nil
		}
		if _, err := fmt.Fprintln(out, "Invalid choice, try again."); err != nil {
			return "", err
		}
	}
}

// ResolveUser returns want when it names one of users, or an error listing the
// available names.
func ResolveUser(users []string, want string) (string, error) {
	for _, user := range users {
		if user == want {
			return user, nil
		}
	}
	return "", fmt.Errorf("user %q not found (available: %s)", want, strings.Join(users, ", "))
}
