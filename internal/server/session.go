package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lawnchairsociety/dungen/internal/export"
	"github.com/lawnchairsociety/dungen/internal/genlog"
	"github.com/lawnchairsociety/dungen/internal/geometry"
	"github.com/lawnchairsociety/dungen/internal/logger"
	"github.com/lawnchairsociety/dungen/internal/pipeline"
)

// Message types sent to the renderer.
const (
	TypeLevel   = "level"
	TypeError   = "error"
	TypePresets = "presets"
	TypeHistory = "history"
	TypeHelp    = "help"
)

const defaultHistoryLimit = 10

// Message is one reply on the WebSocket.
type Message struct {
	Type     string           `json:"type"`
	ID       string           `json:"id,omitempty"`
	Level    *export.Document `json:"level,omitempty"`
	ASCII    string           `json:"ascii,omitempty"`
	Summary  string           `json:"summary,omitempty"`
	Report   *geometry.Report `json:"report,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
	Error    string           `json:"error,omitempty"`
	Text     string           `json:"text,omitempty"`
	Presets  []PresetInfo     `json:"presets,omitempty"`
	History  []genlog.Entry   `json:"history,omitempty"`
}

// PresetInfo is a menu entry as sent to the renderer.
type PresetInfo struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Prompt    string `json:"prompt"`
	Algorithm string `json:"algorithm"`
	Mission   string `json:"mission"`
}

type commandKind int

const (
	cmdGenerate commandKind = iota
	cmdSeeded
	cmdRegenerate
	cmdPresets
	cmdHistory
	cmdHelp
	cmdQuit
)

type command struct {
	kind  commandKind
	input string
	seed  int64
	limit int
}

// parseCommand reads one request line.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(word) {
	case "regenerate", "reroll":
		return command{kind: cmdRegenerate}, nil
	case "presets", "menu":
		return command{kind: cmdPresets}, nil
	case "help", "?":
		return command{kind: cmdHelp}, nil
	case "quit", "exit":
		return command{kind: cmdQuit}, nil
	case "history":
		limit := defaultHistoryLimit
		if rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil || n <= 0 {
				return command{}, fmt.Errorf("history needs a positive count, got %q", rest)
			}
			limit = n
		}
		return command{kind: cmdHistory, limit: limit}, nil
	case "seed":
		seedText, input, _ := strings.Cut(rest, " ")
		seed, err := strconv.ParseInt(seedText, 10, 64)
		if err != nil || seed == 0 {
			return command{}, fmt.Errorf("usage: seed <non-zero number> <preset or description>")
		}
		return command{kind: cmdSeeded, seed: seed, input: strings.TrimSpace(input)}, nil
	}
	return command{kind: cmdGenerate, input: line}, nil
}

const helpText = `Send one request per message:
  1-6                      generate a preset level
  <description>            generate from a description
  seed <n> <request>       generate with a fixed seed
  regenerate               same request, new seed
  presets                  list the presets
  history [n]              recent generations
  quit                     close the connection`

// session is the state of one connection.
type session struct {
	server *LevelServer
	client *WebSocketClient
	ip     string
	last   *pipeline.Level
}

func newSession(s *LevelServer, client *WebSocketClient, ip string) *session {
	return &session{server: s, client: client, ip: ip}
}

func (s *session) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		s.client.Close()
	}()

	logger.Info("Renderer connected", "client_ip", s.ip, "remote_addr", s.client.RemoteAddr())
	defer logger.Info("Renderer disconnected", "client_ip", s.ip)

	if err := s.client.WriteJSON(s.presetsMessage()); err != nil {
		return
	}
	for {
		line, err := s.client.ReadLine()
		if err != nil {
			return
		}
		cmd, err := parseCommand(line)
		if err != nil {
			if s.client.WriteJSON(errorMessage(err)) != nil {
				return
			}
			continue
		}
		if cmd.kind == cmdQuit {
			return
		}
		if err := s.client.WriteJSON(s.handle(ctx, cmd)); err != nil {
			logger.Warning("Failed to send reply", "client_ip", s.ip, "error", err)
			return
		}
	}
}

func (s *session) handle(ctx context.Context, cmd command) Message {
	switch cmd.kind {
	case cmdPresets:
		return s.presetsMessage()
	case cmdHelp:
		return Message{Type: TypeHelp, Text: helpText}
	case cmdHistory:
		return s.historyMessage(ctx, cmd.limit)
	}

	if ok, wait := s.server.rateLimiter.Allow(s.ip); !ok {
		return errorMessage(fmt.Errorf("too many requests, try again in %s", wait.Round(time.Second)))
	}

	var (
		level *pipeline.Level
		err   error
	)
	switch cmd.kind {
	case cmdRegenerate:
		if s.last == nil {
			return errorMessage(errors.New("nothing to regenerate yet"))
		}
		level, err = s.server.pipeline.Regenerate(ctx, s.last)
	case cmdSeeded:
		level, err = s.server.pipeline.Run(ctx, pipeline.Request{Input: cmd.input, Seed: cmd.seed})
	default:
		level, err = s.server.pipeline.Run(ctx, pipeline.Request{Input: cmd.input})
	}
	if err != nil {
		return errorMessage(err)
	}
	s.last = level
	return levelMessage(level)
}

func levelMessage(level *pipeline.Level) Message {
	doc := level.Document()
	report := level.Report
	return Message{
		Type:     TypeLevel,
		ID:       level.ID,
		Level:    &doc,
		ASCII:    export.ASCII(level.Grid),
		Summary:  doc.Summary(),
		Report:   &report,
		Warnings: level.Warnings,
	}
}

func errorMessage(err error) Message {
	return Message{Type: TypeError, Error: err.Error()}
}

func (s *session) presetsMessage() Message {
	msg := Message{Type: TypePresets}
	for _, p := range s.server.pipeline.Presets().All() {
		msg.Presets = append(msg.Presets, PresetInfo{
			ID:        p.ID,
			Name:      p.Name,
			Prompt:    p.Prompt,
			Algorithm: string(p.Algorithm),
			Mission:   string(p.Mission.Type),
		})
	}
	return msg
}

func (s *session) historyMessage(ctx context.Context, limit int) Message {
	if s.server.history == nil {
		return errorMessage(errors.New("history is not available"))
	}
	entries, err := s.server.history.Recent(ctx, limit)
	if err != nil {
		logger.Warning("Failed to read history", "error", err)
		return errorMessage(errors.New("history is not available"))
	}
	return Message{Type: TypeHistory, History: entries}
}
