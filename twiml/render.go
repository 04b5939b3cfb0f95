// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package twiml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// ContentType is the media type of a rendered TwiML document
const ContentType = "text/xml; charset=utf-8"

// Render renders the response as a complete TwiML document
func (r *Response) Render() []byte {
	var b bytes.Buffer
	b.WriteString(xmlHeader)
	if r == nil || len(r.Children) == 0 {
		b.WriteString("<Response/>")
		return b.Bytes()
	}
	b.WriteString("<Response>")
	for _, child := range r.Children {
		writeNode(&b, child)
	}
	b.WriteString("</Response>")
	return b.Bytes()
}

func (r *Response) String() string {
	return string(r.Render())
}

// RenderNode renders a single verb as a fragment, without the envelope
func RenderNode(node Node) string {
	var b bytes.Buffer
	writeNode(&b, node)
	return b.String()
}

// EscapeAttr escapes a value for use inside a double-quoted attribute
func EscapeAttr(s string) string {
	var b bytes.Buffer
	// EscapeText only fails when the writer does; bytes.Buffer never does.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

type attr struct {
	name  string
	value string
}

func writeNode(b *bytes.Buffer, node Node) {
	switch n := node.(type) {
	case *Say:
		writeElement(b, "Say", []attr{
			{"voice", n.Voice},
			{"language", n.Language},
			{"loop", intAttr(n.Loop)},
		}, n.Text, nil)
	case *Play:
		writeElement(b, "Play", []attr{
			{"loop", intAttr(n.Loop)},
		}, n.URL, nil)
	case *Pause:
		writeElement(b, "Pause", []attr{
			{"length", secondsAttr(n.Length)},
		}, "", nil)
	case *Gather:
		writeElement(b, "Gather", []attr{
			{"input", n.Input},
			{"action", n.Action},
			{"method", n.Method},
			{"timeout", n.Timeout},
			{"numDigits", intAttr(n.NumDigits)},
			{"finishOnKey", n.FinishOnKey},
			{"speechTimeout", n.SpeechTimeout},
			{"hints", n.Hints},
			{"language", n.Language},
		}, "", n.Children)
	case *Dial:
		writeElement(b, "Dial", []attr{
			{"action", n.Action},
			{"method", n.Method},
			{"timeout", secondsAttr(n.Timeout)},
			{"callerId", n.CallerID},
		}, "", n.Children)
	case *Number:
		writeElement(b, "Number", nil, n.Number, nil)
	case *Conference:
		writeElement(b, "Conference", []attr{
			{"muted", trueAttr(n.Muted)},
			{"beep", n.Beep},
			{"startConferenceOnEnter", strconv.FormatBool(n.StartConferenceOnEnter)},
			{"endConferenceOnExit", trueAttr(n.EndConferenceOnExit)},
			{"waitUrl", n.WaitURL},
			{"waitMethod", n.WaitMethod},
			{"maxParticipants", intAttr(n.MaxParticipants)},
			{"statusCallback", n.StatusCallback},
			{"statusCallbackEvent", n.StatusCallbackEvent},
		}, n.Name, nil)
	case *Redirect:
		writeElement(b, "Redirect", []attr{
			{"method", n.Method},
		}, n.URL, nil)
	case *Hangup:
		writeElement(b, "Hangup", nil, "", nil)
	case *Record:
		writeElement(b, "Record", []attr{
			{"action", n.Action},
			{"method", n.Method},
			{"maxLength", secondsAttr(n.MaxLength)},
			{"timeout", secondsAttr(n.Timeout)},
			{"finishOnKey", n.FinishOnKey},
			{"playBeep", strconv.FormatBool(n.PlayBeep)},
			{"transcribe", trueAttr(n.Transcribe)},
			{"transcribeCallback", n.TranscribeCallback},
		}, "", nil)
	default:
		panic(fmt.Sprintf("twiml: cannot render node of type %T", node))
	}
}

// writeElement writes <name attrs>text children</name>, or a self-closing
// element when there is no content. Attributes with empty values are skipped.
func writeElement(b *bytes.Buffer, name string, attrs []attr, text string, children []Node) {
	b.WriteByte('<')
	b.WriteString(name)
	for _, a := range attrs {
		if a.value == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a.name)
		b.WriteString(`="`)
		_ = xml.EscapeText(b, []byte(a.value))
		b.WriteByte('"')
	}
	if text == "" && len(children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	_ = xml.EscapeText(b, []byte(text))
	for _, child := range children {
		writeNode(b, child)
	}
	b.WriteString("</")
	b.WriteString(name)
	b.WriteByte('>')
}

func intAttr(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func secondsAttr(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return strconv.Itoa(int(d / time.Second))
}

func trueAttr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}
