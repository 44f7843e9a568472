package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/polkiloo/archstore/internal/pkg/auth"
)

// Reads an operator token from stdin and prints the ADMIN_TOKEN_HASH value.
func main() {
	cost := flag.Int("cost", 0, "bcrypt cost, 0 for the default")
	flag.Parse()

	token, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && token == "" {
		fmt.Fprintln(os.Stderr, "read token:", err)
		os.Exit(1)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		fmt.Fprintln(os.Stderr, "token must not be empty")
		os.Exit(2)
	}

	hash, err := auth.HashToken(token, *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash token:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
