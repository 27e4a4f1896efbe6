// Package server exposes video conversion over HTTP, pushing progress to
// websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	canim "github.com/NeuGoga/cc-tweaked-media-player"
	"github.com/NeuGoga/cc-tweaked-media-player/source"
	"github.com/gorilla/websocket"
)

// Request describes a conversion job. Zero valued settings fall back to the
// manager's defaults.
type Request struct {
	Path      string  `json:"path"`
	Output    string  `json:"output"`
	Base      string  `json:"base"`
	BlocksX   int     `json:"blocksX"`
	BlocksY   int     `json:"blocksY"`
	Scale     float64 `json:"scale"`
	FPS       int     `json:"fps"`
	ChunkSize int     `json:"chunkSize"`
	NoDither  bool    `json:"noDither"`
}

// State is a snapshot of the current or last job.
type State struct {
	Title    string          `json:"title"`
	Running  bool            `json:"running"`
	Status   string          `json:"status"`
	Percent  float64         `json:"percent"`
	Error    string          `json:"error,omitempty"`
	Manifest *canim.Manifest `json:"manifest,omitempty"`
}

// Opener returns the frame source for a request path.
type Opener func(path string, fps int) (canim.FrameSource, error)

// OpenPath opens directories as image sequences and anything else with
// ffmpeg.
func OpenPath(path string, fps int) (canim.FrameSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return source.Dir(path)
	}
	return source.Open(path, fps)
}

type client struct {
	mutex sync.Mutex
	conn  *websocket.Conn
}

// Manager runs at most one conversion at a time and broadcasts its progress.
type Manager struct {
	clientsMutex sync.Mutex
	clients      []*client

	stateMutex sync.Mutex
	state      State
	cancel     context.CancelFunc
	done       chan struct{}

	defaults  canim.ConvertOptions
	open      Opener
	converter *canim.Converter
	logger    *log.Logger
}

// NewManager returns a manager whose jobs start from defaults.
func NewManager(defaults canim.ConvertOptions, open Opener, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if open == nil {
		open = OpenPath
	}
	return &Manager{
		state:     State{Status: "Ready."},
		defaults:  defaults,
		open:      open,
		converter: canim.NewConverter(logger),
		logger:    logger,
	}
}

func (m *Manager) options(req Request) canim.ConvertOptions {
	opts := m.defaults
	cfg := &opts.Config
	if req.BlocksX != 0 {
		cfg.BlocksX = req.BlocksX
	}
	if req.BlocksY != 0 {
		cfg.BlocksY = req.BlocksY
	}
	if req.Scale != 0 {
		cfg.Scale = req.Scale
	}
	if req.FPS != 0 {
		cfg.FPS = req.FPS
	}
	if req.ChunkSize != 0 {
		cfg.ChunkSize = req.ChunkSize
	}
	*cfg = cfg.Normalize()

	if req.Output != "" {
		opts.Dir = req.Output
	}
	if req.Base != "" {
		opts.Base = req.Base
	}
	opts.NoDither = opts.NoDither || req.NoDither
	return opts
}

// Start begins converting req in the background.
func (m *Manager) Start(req Request) error {
	if req.Path == "" {
		return errors.New("canim server: start: path must be specified")
	}

	opts := m.options(req)
	if err := opts.Config.Validate(); err != nil {
		return err
	}

	m.stateMutex.Lock()
	if m.state.Running {
		m.stateMutex.Unlock()
		return errors.New("canim server: start: a conversion is already running")
	}

	src, err := m.open(req.Path, opts.Config.FPS)
	if err != nil {
		m.stateMutex.Unlock()
		return fmt.Errorf("canim server: start: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.state = State{
		Title:   source.FileTitle(req.Path),
		Running: true,
		Status:  "Starting conversion...",
	}
	done := m.done
	m.stateMutex.Unlock()

	m.broadcastState()

	progress := canim.NewProgress(64)
	opts.Progress = progress

	relayed := make(chan struct{})
	go func() {
		defer close(relayed)
		for ev := range progress.C {
			m.apply(ev)
		}
	}()

	go func() {
		defer close(done)
		defer cancel()

		m.logger.Println("canim server: converting", req.Path)
		manifest, err := m.converter.Convert(ctx, src, opts)
		progress.Close()
		<-relayed

		m.stateMutex.Lock()
		m.state.Running = false
		m.state.Manifest = manifest
		if err != nil {
			m.state.Error = err.Error()
			m.state.Status = "Error: " + err.Error()
			m.state.Percent = 0
			m.logger.Println("canim server: conversion failed:", err)
		}
		m.stateMutex.Unlock()

		m.broadcastState()
	}()

	return nil
}

// Cancel stops the running conversion and waits for it to finish.
func (m *Manager) Cancel() (State, error) {
	m.stateMutex.Lock()
	if !m.state.Running {
		m.stateMutex.Unlock()
		return State{}, errors.New("canim server: cancel: nothing is running")
	}
	cancel, done := m.cancel, m.done
	m.stateMutex.Unlock()

	cancel()
	<-done

	return m.State(), nil
}

// Wait blocks until the running conversion, if any, has finished.
func (m *Manager) Wait() State {
	m.stateMutex.Lock()
	done := m.done
	m.stateMutex.Unlock()

	if done != nil {
		<-done
	}
	return m.State()
}

// State returns the current state.
func (m *Manager) State() State {
	m.stateMutex.Lock()
	defer m.stateMutex.Unlock()

	return m.state
}

func (m *Manager) apply(ev canim.Event) {
	m.stateMutex.Lock()
	switch ev.Kind {
	case canim.EventStatus:
		m.state.Status = ev.Status
	case canim.EventProgress:
		m.state.Percent = ev.Percent
	}
	m.stateMutex.Unlock()

	d, err := json.Marshal(ev)
	if err != nil {
		m.logger.Println("canim server: error encoding event:", err)
		return
	}
	m.Broadcast(d)
}

func (m *Manager) broadcastState() {
	state := m.State()
	d, err := json.Marshal(struct {
		State State `json:"state"`
	}{state})
	if err != nil {
		m.logger.Println("canim server: error encoding state:", err)
		return
	}
	m.Broadcast(d)
}

// Broadcast sends data to every connected client.
func (m *Manager) Broadcast(data []byte) {
	m.clientsMutex.Lock()
	clientCopy := make([]*client, len(m.clients))
	copy(clientCopy, m.clients)
	m.clientsMutex.Unlock()

	for _, c := range clientCopy {
		c.mutex.Lock()
		c.conn.WriteMessage(websocket.TextMessage, data)
		c.mutex.Unlock()
	}
}

// HandleConn registers conn for progress broadcasts until it disconnects.
func (m *Manager) HandleConn(conn *websocket.Conn) {
	c := &client{conn: conn}

	m.clientsMutex.Lock()
	m.clients = append(m.clients, c)
	m.clientsMutex.Unlock()

	defer func() {
		m.clientsMutex.Lock()
		defer m.clientsMutex.Unlock()

		for i, other := range m.clients {
			if other == c {
				m.clients = append(m.clients[:i], m.clients[i+1:]...)
				return
			}
		}
	}()

	m.broadcastState()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			m.logger.Println("canim server: client disconnected:", err)
			return
		}
	}
}
