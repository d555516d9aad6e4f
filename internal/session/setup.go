package session

import (
	"fmt"
	"strings"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

type Mode int

const (
	Classic Mode = iota
	Challenge
)

func (m Mode) String() string {
	switch m {
	case Classic:
		return "classic"
	case Challenge:
		return "challenge"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// [Mode] implements [encoding.TextMarshaler]
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

type Preset struct {
	Name string `json:"name"`
	mines.GameParams
}

var (
	Easy   = Preset{"Easy", mines.GameParams{Width: 9, Height: 9, MineCount: 10}}
	Medium = Preset{"Medium", mines.GameParams{Width: 16, Height: 16, MineCount: 40}}
	Hard   = Preset{"Hard", mines.GameParams{Width: 30, Height: 16, MineCount: 99}}

	Presets = []Preset{Easy, Medium, Hard}
)

// PresetByName looks a preset up ignoring case.
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

const (
	CustomName = "Custom"

	MinCustomWidth  = 5
	MaxCustomWidth  = 40
	MinCustomHeight = 5
	MaxCustomHeight = 30
)

// Custom clamps a user supplied board into the playable range. The mine count
// always leaves room for a full 3x3 opening.
func Custom(width, height, mineCount int) mines.GameParams {
	width = min(max(width, MinCustomWidth), MaxCustomWidth)
	height = min(max(height, MinCustomHeight), MaxCustomHeight)
	p := mines.GameParams{Width: width, Height: height}
	p.MineCount = min(max(mineCount, 1), max(1, p.MaxMines()))
	return p
}

type Level struct {
	Id int `json:"id"`
	mines.GameParams
}

const (
	MinLevel = 1
	MaxLevel = 10
)

var Levels = [MaxLevel]Level{
	{1, mines.GameParams{Width: 8, Height: 8, MineCount: 10}},
	{2, mines.GameParams{Width: 10, Height: 10, MineCount: 15}},
	{3, mines.GameParams{Width: 12, Height: 12, MineCount: 25}},
	{4, mines.GameParams{Width: 16, Height: 12, MineCount: 35}},
	{5, mines.GameParams{Width: 16, Height: 16, MineCount: 45}},
	{6, mines.GameParams{Width: 18, Height: 16, MineCount: 55}},
	{7, mines.GameParams{Width: 20, Height: 16, MineCount: 70}},
	{8, mines.GameParams{Width: 22, Height: 18, MineCount: 85}},
	{9, mines.GameParams{Width: 24, Height: 20, MineCount: 99}},
	{10, mines.GameParams{Width: 26, Height: 20, MineCount: 120}},
}

// LevelConfig returns the challenge level id, clamping ids outside the table.
func LevelConfig(id int) Level {
	return Levels[min(max(id, MinLevel), MaxLevel)-1]
}

func (l Level) BestKey() string {
	return fmt.Sprintf("Challenge_L%d_%dx%d_%d", l.Id, l.Width, l.Height, l.MineCount)
}

// Setup describes the game a session plays.
type Setup struct {
	Mode       Mode
	Difficulty string
	Level      int
	Params     mines.GameParams
}

func PresetSetup(p Preset) Setup {
	return Setup{Mode: Classic, Difficulty: p.Name, Params: p.GameParams}
}

func CustomSetup(width, height, mineCount int) Setup {
	return Setup{
		Mode:       Classic,
		Difficulty: CustomName,
		Params:     Custom(width, height, mineCount),
	}
}

func ChallengeSetup(level int) Setup {
	l := LevelConfig(level)
	return Setup{
		Mode:       Challenge,
		Difficulty: "Challenge",
		Level:      l.Id,
		Params:     l.GameParams,
	}
}

// BestKey names the record slot a win with this setup competes for.
func (s Setup) BestKey() string {
	if s.Mode == Challenge {
		return LevelConfig(s.Level).BestKey()
	}
	return fmt.Sprintf("%s_%dx%d_%d",
		s.Difficulty, s.Params.Width, s.Params.Height, s.Params.MineCount)
}
