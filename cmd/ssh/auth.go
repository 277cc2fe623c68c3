package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// authorizedKeys is the public key allow-list. A nil list permits every key.
type authorizedKeys []ssh.PublicKey

// loadAuthorizedKeys parses an OpenSSH authorized_keys file. An empty path
// disables the allow-list.
func loadAuthorizedKeys(path string) (authorizedKeys, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read authorized keys: %w", err)
	}
	return parseAuthorizedKeys(data)
}

func parseAuthorizedKeys(data []byte) (authorizedKeys, error) {
	keys := authorizedKeys{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; scanner.Scan(); n++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		key, _, _, _, err := gossh.ParseAuthorizedKey(line)
		if err != nil {
			return nil, fmt.Errorf("authorized keys line %d: %w", n, err)
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read authorized keys: %w", err)
	}
	return keys, nil
}

func (a authorizedKeys) Permits(key ssh.PublicKey) bool {
	if a == nil {
		return true
	}
	for _, k := range a {
		if ssh.KeysEqual(k, key) {
			return true
		}
	}
	return false
}

func fingerprint(key ssh.PublicKey) string {
	return gossh.FingerprintSHA256(key)
}
