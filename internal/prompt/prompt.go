// Package prompt owns the interactive read loop: line editing, the Tab
// completion bridge, and multi-line statement assembly.
package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tabsql/tabsql/internal/completion"
	"github.com/tabsql/tabsql/internal/schema"
)

// Completer adapts the completion engine to readline's AutoCompleter.
// Each Tab press grabs the currently published schema snapshot once and
// holds it for the duration of the call.
type Completer struct {
	Engine   *completion.Engine
	Cache    *schema.Cache
	ActiveDB func() string
	// Max caps how many candidates are offered per Tab press; 0 means no
	// cap.
	Max int
}

// Do returns completion candidates for the current line and cursor.
// newLine contains the suffixes to append for each candidate; length is
// the rune count of the partial word being completed.
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	// The engine wants the whole line so tables typed after the cursor
	// still scope column suggestions; pos is a rune offset, the engine
	// takes bytes.
	buffer := string(line)
	cursor := len(string(line[:pos]))
	snap := c.Cache.Current()

	items := c.Engine.Complete(buffer, cursor, c.ActiveDB(), snap)

	partial := completion.PartialText(buffer, cursor)
	if len(items) > 1 {
		// When every candidate shares a longer prefix, insert the shared
		// part inline instead of listing the alternatives. The prefix is
		// taken over the full list, before the display cap.
		if cp := completion.CommonPrefix(items); len(cp) > len(partial) {
			return [][]rune{[]rune(cp[len(partial):])}, len([]rune(partial))
		}
	}
	if c.Max > 0 && len(items) > c.Max {
		items = items[:c.Max]
	}
	for _, item := range items {
		if len(item.Text) < len(partial) {
			continue
		}
		newLine = append(newLine, []rune(item.Text[len(partial):]))
	}
	return newLine, len([]rune(partial))
}

// Prompt wraps a readline instance with mysql-style primary and
// continuation prompts.
type Prompt struct {
	rl        *readline.Instance
	multiline bool
	primary   string
}

// Options configures a Prompt.
type Options struct {
	HistoryFile string
	Completer   readline.AutoCompleter
	Multiline   bool
	Stdout      io.Writer
}

const continuation = "    -> "

// New opens the terminal for line editing.
func New(opts Options) (*Prompt, error) {
	cfg := &readline.Config{
		Prompt:          "> ",
		HistoryFile:     opts.HistoryFile,
		AutoComplete:    opts.Completer,
		InterruptPrompt: "^C",
		EOFPrompt:       `\q`,
	}
	if opts.Stdout != nil {
		cfg.Stdout = opts.Stdout
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, fmt.Errorf("prompt: %w", err)
	}
	return &Prompt{rl: rl, multiline: opts.Multiline, primary: "> "}, nil
}

// SetLocation updates the primary prompt to "db> " so the user always
// sees which database USE has put them in.
func (p *Prompt) SetLocation(db string) {
	if db == "" {
		db = "(none)"
	}
	p.primary = db + "> "
	p.rl.SetPrompt(p.primary)
}

// ReadStatement reads one complete input: a backslash command on a single
// line, or a SQL statement continued across lines until a terminating
// ";". Ctrl-C abandons the partial statement; io.EOF means the terminal
// closed.
func (p *Prompt) ReadStatement() (string, error) {
	var parts []string

	for {
		line, err := p.rl.Readline()
		switch err {
		case nil:
		case readline.ErrInterrupt:
			parts = nil
			p.rl.SetPrompt(p.primary)
			continue
		default:
			return "", io.EOF
		}

		trimmed := strings.TrimSpace(line)
		if len(parts) == 0 {
			if trimmed == "" {
				continue
			}
			// Backslash commands never continue.
			if strings.HasPrefix(trimmed, `\`) {
				return trimmed, nil
			}
		}

		parts = append(parts, line)
		if !p.multiline || terminated(trimmed) {
			p.rl.SetPrompt(p.primary)
			return strings.Join(parts, "\n"), nil
		}
		p.rl.SetPrompt(continuation)
	}
}

// terminated reports whether the statement ends with a ";" that is not
// inside a quoted string.
func terminated(line string) bool {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == ';' && i == len(line)-1:
			return true
		}
	}
	return false
}

// Close releases the terminal.
func (p *Prompt) Close() error {
	return p.rl.Close()
}
