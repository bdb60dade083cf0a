package artifact

import (
	"errors"
	"sync"
	"time"

	"github.com/codeseed-ai/codeseed/internal/models"
)

// ErrNoSelection is returned by export actions when no artifact is open.
var ErrNoSelection = errors.New("no artifact selected")

// Tab identifies the active panel tab.
type Tab string

const (
	TabPreview Tab = "preview"
	TabCode    Tab = "code"
	TabFiles   Tab = "files"
)

const (
	// DefaultCloseDelay matches the panel's slide-out animation. The
	// selection is kept around that long after Close so the panel still has
	// content to render while it animates away.
	DefaultCloseDelay = 300 * time.Millisecond

	// DefaultCopyReset is how long the copy confirmation stays visible.
	DefaultCopyReset = 2 * time.Second
)

// PresentationState drives the artifact side panel: which artifact is shown,
// which sibling block and tab are active, fullscreen mode, and the export
// actions. It is transient UI state, reset on chat switch, never persisted.
type PresentationState struct {
	mu sync.Mutex

	selected  *models.Artifact
	panelOpen bool
	// Opening the panel collapses the navigation sidebar to free width.
	sidebarCollapsed bool
	activeTab        Tab
	blockIndex       int
	fullscreen       bool
	copied           bool

	closeDelay time.Duration
	copyReset  time.Duration
	closeTimer *time.Timer
	copyTimer  *time.Timer
}

// NewPresentationState returns a state with the standard animation timings.
func NewPresentationState() *PresentationState {
	return NewPresentationStateWithDelays(DefaultCloseDelay, DefaultCopyReset)
}

// NewPresentationStateWithDelays allows tests to shrink the timers.
func NewPresentationStateWithDelays(closeDelay, copyReset time.Duration) *PresentationState {
	return &PresentationState{
		activeTab:  TabPreview,
		closeDelay: closeDelay,
		copyReset:  copyReset,
	}
}

// Open selects an artifact and opens the panel. The sidebar collapses and
// the viewer resets to the preview tab on the first block.
func (s *PresentationState) Open(a models.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
	s.selected = &a
	s.panelOpen = true
	s.sidebarCollapsed = true
	s.activeTab = TabPreview
	s.blockIndex = 0
	s.fullscreen = false
}

// Close closes the panel immediately but keeps the selection until the
// slide-out animation has finished, then clears it.
func (s *PresentationState) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.panelOpen {
		return
	}
	s.panelOpen = false
	s.fullscreen = false
	if s.closeTimer != nil {
		s.closeTimer.Stop()
	}
	s.closeTimer = time.AfterFunc(s.closeDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.panelOpen {
			s.selected = nil
			s.blockIndex = 0
		}
	})
}

// Reset clears everything immediately, e.g. when switching chats.
func (s *PresentationState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
	if s.copyTimer != nil {
		s.copyTimer.Stop()
		s.copyTimer = nil
	}
	s.selected = nil
	s.panelOpen = false
	s.sidebarCollapsed = false
	s.activeTab = TabPreview
	s.blockIndex = 0
	s.fullscreen = false
	s.copied = false
}

// Selected returns the shown artifact, if any.
func (s *PresentationState) Selected() (models.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return models.Artifact{}, false
	}
	return *s.selected, true
}

func (s *PresentationState) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}

func (s *PresentationState) SidebarCollapsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sidebarCollapsed
}

// SelectTab switches between preview, code and files.
func (s *PresentationState) SelectTab(tab Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch tab {
	case TabPreview, TabCode, TabFiles:
		s.activeTab = tab
	}
}

func (s *PresentationState) ActiveTab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab
}

// SelectCodeBlock changes which sibling block is shown, clamped to the valid
// range of the selected artifact.
func (s *PresentationState) SelectCodeBlock(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return
	}
	n := len(s.selected.CodeBlocks)
	if n == 0 {
		s.blockIndex = 0
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	s.blockIndex = i
}

func (s *PresentationState) SelectedCodeBlockIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockIndex
}

// CurrentBlock returns the active sibling block of the selected artifact.
func (s *PresentationState) CurrentBlock() (models.CodeBlock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentBlockLocked()
}

func (s *PresentationState) currentBlockLocked() (models.CodeBlock, bool) {
	if s.selected == nil {
		return models.CodeBlock{}, false
	}
	if len(s.selected.CodeBlocks) == 0 {
		return s.selected.Block, true
	}
	i := s.blockIndex
	if i < 0 || i >= len(s.selected.CodeBlocks) {
		i = 0
	}
	return s.selected.CodeBlocks[i], true
}

// ToggleFullscreen flips the overlay mode. Only the flag changes, so exiting
// restores the panel exactly as it was.
func (s *PresentationState) ToggleFullscreen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return
	}
	s.fullscreen = !s.fullscreen
}

func (s *PresentationState) Fullscreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreen
}

// Copy returns the active block's code for the clipboard and raises the
// transient copied confirmation.
func (s *PresentationState) Copy() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	block, ok := s.currentBlockLocked()
	if !ok {
		return "", false
	}
	s.copied = true
	if s.copyTimer != nil {
		s.copyTimer.Stop()
	}
	s.copyTimer = time.AfterFunc(s.copyReset, func() {
		s.mu.Lock()
		s.copied = false
		s.mu.Unlock()
	})
	return block.Code, true
}

func (s *PresentationState) Copied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copied
}

// Preview returns the document for the sandboxed frame, or ok=false when the
// active block has no preview and the viewer should suggest the Code tab.
func (s *PresentationState) Preview() (doc string, ok bool) {
	block, ok := s.CurrentBlock()
	if !ok {
		return "", false
	}
	return BuildPreviewDoc(block)
}

// ExportZip bundles the selected artifact's blocks into a downloadable
// archive.
func (s *PresentationState) ExportZip(now time.Time) (data []byte, filename string, err error) {
	a, ok := s.Selected()
	if !ok {
		return nil, "", ErrNoSelection
	}
	return ExportZip(a, now)
}
