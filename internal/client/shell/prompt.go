package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// prompter reads answers line by line from the terminal.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{scanner: bufio.NewScanner(in), out: out}
}

// ask prints label and returns the trimmed answer; ok is false at EOF.
func (p *prompter) ask(label string) (answer string, ok bool) {
	fmt.Fprint(p.out, label)
	if !p.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

// askDefault returns def when the answer is empty.
func (p *prompter) askDefault(label, def string) (string, bool) {
	if def != "" {
		label = fmt.Sprintf("%s[%s] ", label, def)
	}
	answer, ok := p.ask(label)
	if ok && answer == "" {
		answer = def
	}
	return answer, ok
}

// confirm asks a yes/no question; anything but y or yes is no.
func (p *prompter) confirm(label string) bool {
	answer, ok := p.ask(label + " (y/n): ")
	if !ok {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
