// Package main is a utility for generating bcrypt hashes of user passwords.
// The platform stores only bcrypt hashes, never the raw passwords, so this
// tool is used when manually seeding or resetting user records in the database
// without running the full server. Pass the password as the first argument.
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: hash <password>")
		os.Exit(1)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(hash))
}
