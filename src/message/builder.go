// Package message composes Chatwork chat markup.
package message

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBlockOpen is returned when opening a block that is already open.
	ErrBlockOpen = errors.New("block already open")
	// ErrBlockNotOpen is returned when closing a block that was never opened.
	ErrBlockNotOpen = errors.New("block not open")
	// ErrUnclosedBlock is returned by Build when a block is still open.
	ErrUnclosedBlock = errors.New("unclosed block")
)

// Emoticon is a Chatwork emoticon name such as "clap".
type Emoticon string

// Default emoticons for successful and failed builds.
const (
	Clap  Emoticon = "clap"
	Devil Emoticon = "devil"
)

// Markup returns the chat token for the emoticon, e.g. "(clap)".
func (e Emoticon) Markup() string {
	return "(" + string(e) + ")"
}

// Builder accumulates chat markup. It is a value type: every method returns
// a new Builder and leaves the receiver untouched. The first usage error is
// kept and reported by Build.
type Builder struct {
	text      string
	infoOpen  bool
	titleOpen bool
	err       error
}

// NewBuilder returns an empty builder.
func NewBuilder() Builder {
	return Builder{}
}

func (b Builder) fail(err error) Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// WithBody appends raw text.
func (b Builder) WithBody(text string) Builder {
	b.text += text
	return b
}

// WithEmoticon appends the emoticon's markup token.
func (b Builder) WithEmoticon(e Emoticon) Builder {
	b.text += e.Markup()
	return b
}

// BeginInfo opens an [info] block.
func (b Builder) BeginInfo() Builder {
	if b.infoOpen {
		return b.fail(fmt.Errorf("begin info: %w", ErrBlockOpen))
	}
	b.text += "[info]"
	b.infoOpen = true
	return b
}

// EndInfo closes the [info] block.
func (b Builder) EndInfo() Builder {
	if !b.infoOpen {
		return b.fail(fmt.Errorf("end info: %w", ErrBlockNotOpen))
	}
	b.text += "[/info]"
	b.infoOpen = false
	return b
}

// BeginTitle opens a [title] block.
func (b Builder) BeginTitle() Builder {
	if b.titleOpen {
		return b.fail(fmt.Errorf("begin title: %w", ErrBlockOpen))
	}
	b.text += "[title]"
	b.titleOpen = true
	return b
}

// EndTitle closes the [title] block.
func (b Builder) EndTitle() Builder {
	if !b.titleOpen {
		return b.fail(fmt.Errorf("end title: %w", ErrBlockNotOpen))
	}
	b.text += "[/title]"
	b.titleOpen = false
	return b
}

// Valid reports whether the builder can be materialized.
func (b Builder) Valid() bool {
	return b.err == nil && !b.infoOpen && !b.titleOpen
}

// Build returns the accumulated markup.
func (b Builder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if b.infoOpen {
		return "", fmt.Errorf("info: %w", ErrUnclosedBlock)
	}
	if b.titleOpen {
		return "", fmt.Errorf("title: %w", ErrUnclosedBlock)
	}
	return b.text, nil
}

// ReportLine renders one job line of a notification body:
// " (clap) app-build #42: Build SUCCESS http://x/42\n".
func ReportLine(e Emoticon, displayName, prefix, status, link string) (string, error) {
	return NewBuilder().
		WithBody(" ").
		WithEmoticon(e).
		WithBody(" ").
		WithBody(displayName).
		WithBody(": ").
		WithBody(prefix).
		WithBody(" ").
		WithBody(status).
		WithBody(" ").
		WithBody(link).
		WithBody("\n").
		Build()
}

// Decorate wraps a title and body into an info block with a title header.
// A single trailing newline on the body is dropped.
func Decorate(title, body string) (string, error) {
	body = strings.TrimSuffix(body, "\n")
	return NewBuilder().
		BeginInfo().
		BeginTitle().
		WithBody(title).
		EndTitle().
		WithBody(body).
		EndInfo().
		Build()
}
