// SPDX-License-Identifier: GPL-3.0-or-later

// Copyright (c) 2025 Spruce Health

package twiml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Parse parses TwiML XML and returns a Response AST.
// Attributes are recorded as written; platform defaults are not filled in,
// so Parse(r.Render()) reproduces r.
func Parse(data []byte) (*Response, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml parse error: %w", err)
		}

		if se, ok := token.(xml.StartElement); ok {
			if se.Name.Local != "Response" {
				return nil, fmt.Errorf("unexpected root element <%s>", se.Name.Local)
			}
			resp := &Response{}
			if err := parseResponse(decoder, &se, resp); err != nil {
				return nil, err
			}
			return resp, nil
		}
	}

	return nil, fmt.Errorf("no <Response> element found")
}

func parseResponse(decoder *xml.Decoder, start *xml.StartElement, resp *Response) error {
	for _, attr := range start.Attr {
		return fmt.Errorf("unknown attribute '%s' on <Response>", attr.Name.Local)
	}

	children, err := parseChildren(decoder, "Response")
	if err != nil {
		return err
	}
	resp.Children = children
	return nil
}

// parseChildren reads nested verbs until the end tag of parent
func parseChildren(decoder *xml.Decoder, parent string) ([]Node, error) {
	var children []Node
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("unexpected end of document inside <%s>", parent)
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			node, err := parseNode(decoder, &t)
			if err != nil {
				return nil, err
			}
			children = append(children, node)
		case xml.EndElement:
			if t.Name.Local == parent {
				return children, nil
			}
		}
	}
}

func parseNode(decoder *xml.Decoder, start *xml.StartElement) (Node, error) {
	switch start.Name.Local {
	case "Say":
		return parseSay(decoder, start)
	case "Play":
		return parsePlay(decoder, start)
	case "Pause":
		return parsePause(decoder, start)
	case "Gather":
		return parseGather(decoder, start)
	case "Dial":
		return parseDial(decoder, start)
	case "Number":
		return parseNumber(decoder, start)
	case "Conference":
		return parseConference(decoder, start)
	case "Redirect":
		return parseRedirect(decoder, start)
	case "Hangup":
		for _, attr := range start.Attr {
			return nil, fmt.Errorf("unknown attribute '%s' on <Hangup>", attr.Name.Local)
		}
		if err := decoder.Skip(); err != nil {
			return nil, err
		}
		return &Hangup{}, nil
	case "Record":
		return parseRecord(decoder, start)
	default:
		return nil, fmt.Errorf("unknown TwiML element: <%s>", start.Name.Local)
	}
}

func parseSay(decoder *xml.Decoder, start *xml.StartElement) (*Say, error) {
	say := &Say{}
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "voice":
			say.Voice = attr.Value
		case "language":
			say.Language = attr.Value
		case "loop":
			n, err := parseInt("Say", attr)
			if err != nil {
				return nil, err
			}
			say.Loop = n
		default:
			return nil, fmt.Errorf("unknown attribute '%s' on <Say>", attr.Name.Local)
		}
	}

	if err := decoder.DecodeElement(&say.Text, start); err != nil {
		return nil, err
	}
	return say, nil
}

func parsePlay(decoder *xml.Decoder, start *xml.StartElement) (*Play, error) {
	play := &Play{}
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "loop":
			n, err := parseInt("Play", attr)
			if err != nil {
				return nil, err
			}
			play.Loop = n
		default:
			return nil, fmt.Errorf("unknown attribute '%s' on <Play>", attr.Name.Local)
		}
	}
	if err := decoder.DecodeElement(&play.URL, start); err != nil {
		return nil, err
	}
	play.URL = strings.TrimSpace(play.URL)
	return play, nil
}

func parsePause(decoder *xml.Decoder, start *xml.StartElement) (*Pause, error) {
	pause := &Pause{}
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "length":
			d, err := parseSeconds("Pause", attr)
			if err != nil {
				return nil, err
			}
			pause.Length = d
		default:
			return nil, fmt.Errorf("unknown attribute '%s' on <Pause>", attr.Name.Local)
		}
	}
	if err := decoder.Skip(); err != nil {
		return nil, err
	}
	return pause, nil
}

func parseGather(decoder *xml.Decoder, start *xml.StartElement) (*Gather, error) {
	gather := &Gather{}

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "input":
			gather.Input = attr.Value
		case "timeout":
			gather.Timeout = attr.Value
		case "numDigits":
			n, err := parseInt("Gather", attr)
			if err != nil {
				return nil, err
			}
			gather.NumDigits = n
		case "finishOnKey":
			gather.FinishOnKey = attr.Value
		case "action":
			gather.Action = attr.Value
		case "method":
			gather.Method = strings.ToUpper(attr.Value)
		case "hints":
			gather.Hints = attr.Value
		case "speechTimeout":
			gather.SpeechTimeout = attr.Value
		case "language":
			gather.Language = attr.Value
		default:
			return nil, fmt.Errorf("unknown attribute '%s' on <Gather>", attr.Name.Local)
		}
	}

	children, err := parseChildren(decoder, "Gather")
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		switch child.(type) {
		case *Say, *Play, *Pause:
		default:
			return nil, fmt.Errorf("<%T> is not allowed inside <Gather>", child)
		}
	}
	gather.Children = children
	return gather, nil
}

func parseDial(decoder *xml.Decoder, start *xml.StartElement) (*Dial, error) {
	dial := &Dial{}

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "action":
			dial.Action = attr.Value
		case "method":
			dial.Method = strings.ToUpper(attr.Value)
		case "timeout":
			d, err := parseSeconds("Dial", attr)
			if err != nil {
				return nil, err
			}
			dial.Timeout = d
		case "callerId":
			dial.CallerID = attr.Value
		default:
			return nil, fmt.Errorf("unknown attribute '%s' on <Dial>", attr.Name.Local)
		}
	}

	// Content is either a bare number or nested <Number>/<Conference> nouns
	var textContent string
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("unexpected end of document inside <Dial>")
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.CharData:
			textContent += strings.TrimSpace(string(t))
		case xml.StartElement:
			node, err := parseNode(decoder, &t)
			if err != nil {
				return nil, err
			}
			switch node.(type) {
			case *Number, *Conference:
				dial.Children = append(dial.Children, node)
			default:
				return nil, fmt.Errorf("<%s> is not allowed inside <Dial>", t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Local == "Dial" {
				if len(dial.Children) == 0 && textContent != "" {
					dial.Children = []Node{&Number{Number: textContent}}
				}
				return dial, nil
			}
		}
	}
}

func parseNumber(decoder *xml.Decoder, start *xml.StartElement) (*Number, error) {
	num := &Number{}
	for _, attr := range start.Attr {
		return nil, fmt.Errorf("unknown attribute '%s' on <Number>", attr.Name.Local)
	}
	if err := decoder.DecodeElement(&num.Number, start); err != nil {
		return nil, err
	}
	num.Number = strings.TrimSpace(num.Number)
	return num, nil
}

func parseConference(decoder *xml.Decoder, start *xml.StartElement) (*Conference, error) {
	conf := &Conference{}

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "muted":
			conf.Muted = attr.Value == "true"
		case "beep":
			conf.Beep = attr.Value
		case "startConferenceOnEnter":
			conf.StartConferenceOnEnter = attr.Value == "true"
		case "endConferenceOnExit":
			conf.EndConferenceOnExit = attr.Value == "true"
		case "waitUrl":
			conf.WaitURL = attr.Value
		case "waitMethod":
			conf.WaitMethod = strings.ToUpper(attr.Value)
		case "maxParticipants":
			n, err := parseInt("Conference", attr)
			if err != nil {
				return nil, err
			}
			conf.MaxParticipants = n
		case "statusCallback":
			conf.StatusCallback = attr.Value
		case "statusCallbackEvent":
			conf.StatusCallbackEvent = attr.Value
		default:
			return nil, fmt.Errorf("unknown attribute '%s' on <Conference>", attr.Name.Local)
		}
	}

	if err := decoder.DecodeElement(&conf.Name, start); err != nil {
		return nil, err
	}
	conf.Name = strings.TrimSpace(conf.Name)
	return conf, nil
}

func parseRedirect(decoder *xml.Decoder, start *xml.StartElement) (*Redirect, error) {
	redirect := &Redirect{}

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "method":
			redirect.Method = strings.ToUpper(attr.Value)
		default:
			return nil, fmt.Errorf("unknown attribute '%s' on <Redirect>", attr.Name.Local)
		}
	}

	if err := decoder.DecodeElement(&redirect.URL, start); err != nil {
		return nil, err
	}
	redirect.URL = strings.TrimSpace(redirect.URL)
	return redirect, nil
}

func parseRecord(decoder *xml.Decoder, start *xml.StartElement) (*Record, error) {
	record := &Record{}

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "maxLength":
			d, err := parseSeconds("Record", attr)
			if err != nil {
				return nil, err
			}
			record.MaxLength = d
		case "timeout":
			d, err := parseSeconds("Record", attr)
			if err != nil {
				return nil, err
			}
			record.Timeout = d
		case "playBeep":
			record.PlayBeep = attr.Value == "true"
		case "action":
			record.Action = attr.Value
		case "method":
			record.Method = strings.ToUpper(attr.Value)
		case "finishOnKey":
			record.FinishOnKey = attr.Value
		case "transcribe":
			record.Transcribe = attr.Value == "true"
		case "transcribeCallback":
			record.TranscribeCallback = attr.Value
		default:
			return nil, fmt.Errorf("unknown attribute '%s' on <Record>", attr.Name.Local)
		}
	}

	if err := decoder.Skip(); err != nil {
		return nil, err
	}
	return record, nil
}

func parseInt(element string, attr xml.Attr) (int, error) {
	n, err := strconv.Atoi(attr.Value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s on <%s>: %q", attr.Name.Local, element, attr.Value)
	}
	return n, nil
}

func parseSeconds(element string, attr xml.Attr) (time.Duration, error) {
	n, err := parseInt(element, attr)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
