package control

import (
	"bufio"
	"fmt"
	"io"
)

// Run reads one line at a time from lines, printing the status banner
// and a prompt before each, and writes each command's response to out.
// It returns when lines is exhausted (EOF) or ctx-like cancellation is
// signalled by lines.Read returning an error. Kept independent of
// *os.Stdin specifically so an admin socket can stand in for the
// "source of lines" later.
func Run(it *Interpreter, lines io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(lines)
	for {
		fmt.Fprintf(out, "\n%s\n> ", it.Status())
		if !scanner.Scan() {
			return scanner.Err()
		}
		response := it.Execute(scanner.Text())
		if response != "" {
			fmt.Fprintln(out, response)
		}
	}
}
