package console

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"glicko-ranker/ranker/pool"
	"glicko-ranker/ranker/session"
)

// ParseJudgment maps one line of input to a signal. ok is false when the
// input is not recognised.
func ParseJudgment(line string) (sig session.Signal, ok bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "1":
		return session.LeftWins, true
	case "2":
		return session.RightWins, true
	case "0":
		return session.Draw, true
	case "d":
		return session.BothDisliked, true
	case "u":
		return session.Undo, true
	case "h":
		return session.Help, true
	case "":
		return session.End, true
	}
	return session.End, false
}

// Prompt is the terminal judge. It reads one answer per line and reports
// session events back to the same terminal.
type Prompt struct {
	*Printer
	lines chan string
	err   error // set before lines is closed
	log   zerolog.Logger
}

func NewPrompt(in io.Reader, pr *Printer, logger zerolog.Logger) *Prompt {
	p := &Prompt{
		Printer: pr,
		lines:   make(chan string),
		log:     logger.With().Str("component", "console").Logger(),
	}
	go p.pump(bufio.NewScanner(in))
	return p
}

// pump feeds lines to ReadLine so a blocked read can be abandoned on cancel.
func (p *Prompt) pump(sc *bufio.Scanner) {
	for sc.Scan() {
		p.lines <- sc.Text()
	}
	p.err = sc.Err()
	close(p.lines)
}

// ReadLine waits for the next line; io.EOF when input is exhausted.
func (p *Prompt) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if ok {
			return line, nil
		}
		if p.err != nil {
			return "", eris.Wrap(p.err, "failed to read input")
		}
		return "", io.EOF
	}
}

func (p *Prompt) Ask(ctx context.Context, round int, left, right string) (session.Signal, error) {
	if err := ctx.Err(); err != nil {
		return session.End, err
	}
	p.rule()
	p.printf("Battle #%d: %s vs %s\n", round, p.cyan(left), p.warn(right))
	p.printf("Pick [ 'h' for help ] >> ")

	line, err := p.ReadLine(ctx)
	if err == io.EOF {
		p.printf("\n")
		return session.End, nil
	}
	if err != nil {
		return session.End, err
	}
	sig, ok := ParseJudgment(line)
	if !ok {
		// Legacy behaviour: anything unrecognised ends the session.
		p.log.Warn().Str("input", line).Msg("unrecognised judgment, ending session")
	}
	return sig, nil
}

func (p *Prompt) Help() {
	p.printf("1/2 to choose left/right\n")
	p.printf("0 for draws\n")
	p.printf("d if you DISLIKE BOTH of them\n")
	p.printf("u to UNDO\n")
	p.printf("<Enter> to end this session\n")
}

func (p *Prompt) Chose(s session.Signal, left, right string) {
	switch s {
	case session.LeftWins:
		p.printf("Chose - %s!\n", p.good(left))
	case session.RightWins:
		p.printf("Chose - %s!\n", p.good(right))
	case session.Draw:
		p.printf("Chose - %s!\n", p.cyan("draw"))
	case session.BothDisliked:
		p.printf("%s\n", p.bad("Disliked both!"))
	}
}

func (p *Prompt) Undone(m pool.Match, ok bool) {
	if !ok {
		p.printf("%s\n", p.warn("This is the first battle!"))
		return
	}
	p.printf("Undoing...\n")
}

func (p *Prompt) Ended(matches int) {
	p.printf("Finish rating session (%d %s).\n", matches, plural(matches, "battle", "battles"))
}

// SessionStart announces a new session.
func (p *Printer) SessionStart(entities int) {
	p.printf("=== Starting a new session with %d entities ===\n", entities)
}

// LobbyHelp lists the lobby commands.
func (p *Printer) LobbyHelp() {
	p.printf("-- 'start':    start a new session.\n")
	p.printf("-- 'list':     show the ranking list.\n")
	p.printf("-- 'stat':     see stats of an entity (stat <id|name>).\n")
	p.printf("-- 'summary':  rating distribution of the pool.\n")
	p.printf("-- 'sessions': recently committed sessions.\n")
	p.printf("-------------------------------------\n")
	p.printf("-- 'help':     display this message.\n")
	p.printf("-- 'exit':     see you next time.\n")
}

func (p *Printer) StatUsage() { p.printf("usage: stat <id|name>\n") }

var (
	_ session.Judge    = (*Prompt)(nil)
	_ session.Reporter = (*Prompt)(nil)
)
