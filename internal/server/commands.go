package server

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/vancomm/minesweeper-engine/internal/session"
)

// Maps known commands to number of arguments
var commandNargs = map[string]int{
	"g": 0,
	"o": 2,
	"f": 2,
	"c": 2,
	"r": 0,
}

var commandKinds = map[string]session.MoveKind{
	"g": session.MoveGet,
	"o": session.MoveOpen,
	"f": session.MoveFlag,
	"c": session.MoveChord,
	"r": session.MoveForfeit,
}

// CommandError points at the first malformed line of a batch, counting from 1.
type CommandError struct {
	Line int
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func byPiece(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}

func parseXY(twoStrings []string) (x int, y int, err error) {
	if x, err = strconv.Atoi(twoStrings[0]); err != nil {
		err = errors.New("first argument must be an int")
		return
	}
	if y, err = strconv.Atoi(twoStrings[1]); err != nil {
		err = errors.New("second argument must be an int")
		return
	}
	return
}

func parseCommand(c string) (session.Move, error) {
	parts := strings.Fields(c)
	if len(parts) == 0 {
		return session.Move{}, errors.New("empty command")
	}
	nargs, ok := commandNargs[parts[0]]
	if !ok {
		return session.Move{}, fmt.Errorf("unknown command %q", parts[0])
	}
	if nargs != len(parts)-1 {
		return session.Move{}, errors.New("invalid number of arguments")
	}
	move := session.Move{Kind: commandKinds[parts[0]]}
	if nargs == 2 {
		x, y, err := parseXY(parts[1:])
		if err != nil {
			return session.Move{}, err
		}
		move.X, move.Y = x, y
	}
	return move, nil
}

// Parses newline-separated commands of following syntax:
//
//	o x y // open a square at x:y
//	c x y // chord a square at x:y
//	f x y // flag a square at x:y
//	r     // give up and reveal the mines
//	g     // get the game without changing it
//
// Moves come back in the order they are listed, one per line.
func parseCommands(text string) ([]session.Move, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var moves []session.Move
	for i, c := range byPiece(text, "\n") {
		move, err := parseCommand(strings.TrimSpace(c))
		if err != nil {
			return nil, &CommandError{Line: i + 1, Err: err}
		}
		moves = append(moves, move)
	}
	return moves, nil
}
