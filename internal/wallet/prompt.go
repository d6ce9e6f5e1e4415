// internal/wallet/prompt.go
package wallet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/term"
)

// TerminalPrompter asks on the controlling terminal. AssumeYes skips the
// signing confirmation but never the passphrase.
type TerminalPrompter struct {
	In        *os.File
	Out       io.Writer
	AssumeYes bool
	// Preset, when non-empty, is returned instead of prompting.
	Preset string
}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

func (p *TerminalPrompter) Passphrase(account common.Address) (string, error) {
	if p.Preset != "" {
		return p.Preset, nil
	}
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("passphrase required but stdin is not a terminal")
	}

	fmt.Fprintf(p.Out, "Unlock %s\nPassphrase: ", account.Hex())
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *TerminalPrompter) ConfirmTransaction(account common.Address, tx *types.Transaction) bool {
	to := "contract creation"
	if tx.To() != nil {
		to = tx.To().Hex()
	}
	return p.Confirm(fmt.Sprintf("Sign transaction from %s to %s (nonce %d, gas %d)?", account.Hex(), to, tx.Nonce(), tx.Gas()))
}

// Confirm asks a yes/no question; anything but y or yes is a no.
func (p *TerminalPrompter) Confirm(question string) bool {
	if p.AssumeYes {
		return true
	}
	fmt.Fprintf(p.Out, "%s [y/N] ", question)

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
