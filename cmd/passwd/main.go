// Command passwd generates password hashes for wicket account
// configuration and seeding.
//
// Usage:
//
//	wicket-passwd [-hash bcrypt|sha256] [-cost N]
//
// The password is read from stdin; pipe it in for scripting, e.g.
//
//	echo -n s3cret | wicket-passwd -hash bcrypt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/wicket-auth/wicket/pkg/password"
)

func main() {
	hashScheme := flag.String("hash", "bcrypt", "hash scheme: bcrypt or sha256")
	cost := flag.Int("cost", 0, "bcrypt cost (0 = library default)")
	flag.Parse()

	if err := run(*hashScheme, *cost); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(hashScheme string, cost int) error {
	var hasher password.Hasher
	switch hashScheme {
	case "bcrypt":
		hasher = &password.Bcrypt{Cost: cost}
	case "sha256":
		hasher = password.SHA256Hex{}
	default:
		return fmt.Errorf("unknown hash scheme %q", hashScheme)
	}

	reader := bufio.NewReader(os.Stdin)
	plaintext, err := reader.ReadString('\n')
	if err != nil && plaintext == "" {
		return fmt.Errorf("reading password from stdin: %w", err)
	}
	plaintext = strings.TrimRight(plaintext, "\r\n")
	if plaintext == "" {
		return fmt.Errorf("empty password")
	}

	hash, err := hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	fmt.Println(string(hash))
	return nil
}
