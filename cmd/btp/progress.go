package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	progressWidth    = 30
	progressInterval = 100 * time.Millisecond
)

// progress renders a single bar for a batch of files analyzed concurrently
type progress struct {
	mu         sync.Mutex
	output     io.Writer
	total      int
	done       int
	lastUpdate time.Time
}

func newProgress(output io.Writer, total int) *progress {
	return &progress{
		output: output,
		total:  total,
	}
}

// fileDone records one finished file. Safe for concurrent use; a nil progress is a no-op.
func (p *progress) fileDone(path string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++

	// Only render if some time has passed since last update
	// to avoid flooding terminal output
	if p.done < p.total && time.Since(p.lastUpdate) < progressInterval {
		return
	}
	p.lastUpdate = time.Now()
	p.render(filepath.Base(path))
}

// render draws [=====>    ] with the count and the last file name
func (p *progress) render(name string) {
	percent := float64(p.done) / float64(p.total) * 100
	completed := p.done * progressWidth / p.total

	var bar strings.Builder
	bar.WriteByte('[')
	for i := 0; i < progressWidth; i++ {
		switch {
		case i < completed:
			bar.WriteByte('=')
		case i == completed:
			bar.WriteByte('>')
		default:
			bar.WriteByte(' ')
		}
	}
	bar.WriteByte(']')

	// Truncate name if too long
	if len(name) > 40 {
		name = name[:37] + "..."
	}

	fmt.Fprintf(p.output, "\r%s %5.1f%% %d/%d %-40s", bar.String(), percent, p.done, p.total, name)
	if p.done == p.total {
		fmt.Fprintln(p.output)
	}
}
