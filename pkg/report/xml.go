// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package report

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/ostafen/findcrypt/internal/scan"
)

const XmlOutputVersion = "1.0"

type Header struct {
	XmlOutput string
	Creator   Creator
	Source    Source
	Database  Database
}

type Creator struct {
	Package              string  `xml:"package"`
	Version              string  `xml:"version"`
	ExecutionEnvironment ExecEnv `xml:"execution_environment"`
}

type ExecEnv struct {
	OS      string `xml:"os_sysname"`
	Release string `xml:"os_release"`
	Version string `xml:"os_version"`
	Host    string `xml:"host"`
	Arch    string `xml:"arch"`
	UID     int    `xml:"uid"`
	Start   string `xml:"start_time"`
}

// Source describes the scanned image.
type Source struct {
	ImageFilename string `xml:"image_filename"`
	ImageSize     uint64 `xml:"image_size"`
	MinOffset     string `xml:"min_offset"`
}

type Database struct {
	Path       string `xml:"path"`
	Signatures int    `xml:"signatures"`
}

type Match struct {
	XMLName xml.Name `xml:"match"`
	Name    string   `xml:"name"`
	Offset  string   `xml:"offset,attr"` // 0x-prefixed, 8-digit uppercase hex
	Length  int      `xml:"len,attr"`
	Index   int      `xml:"index,attr"`
}

func FormatOffset(off uint64) string {
	return fmt.Sprintf("0x%08X", off)
}

func NewMatch(m scan.MatchResult) Match {
	return Match{
		Name:   m.Name,
		Offset: FormatOffset(m.Offset),
		Length: m.Length,
		Index:  m.Index,
	}
}

func NewSummary(r scan.Report) Summary {
	return Summary{
		Hits:     r.Hits,
		Scanned:  r.Scanned,
		Total:    r.Total,
		Canceled: r.Canceled,
		Duration: r.Duration.String(),
	}
}

type Summary struct {
	XMLName  xml.Name `xml:"summary"`
	Hits     int      `xml:"hits"`
	Scanned  int      `xml:"scanned"`
	Total    int      `xml:"total"`
	Canceled bool     `xml:"canceled"`
	Duration string   `xml:"duration"`
}

type XMLWriter struct {
	w   io.Writer
	enc *xml.Encoder
}

func NewXMLWriter(w io.Writer) *XMLWriter {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	return &XMLWriter{
		w:   w,
		enc: enc,
	}
}

// WriteHeader opens the root element and writes the report metadata.
func (w *XMLWriter) WriteHeader(hdr Header) error {
	if _, err := io.WriteString(w.w, xml.Header); err != nil {
		return err
	}

	start := xml.StartElement{
		Name: xml.Name{Local: "findcrypt"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmloutputversion"}, Value: hdr.XmlOutput},
		},
	}
	if err := w.enc.EncodeToken(start); err != nil {
		return err
	}

	if err := w.enc.EncodeElement(hdr.Creator, xml.StartElement{Name: xml.Name{Local: "creator"}}); err != nil {
		return err
	}
	if err := w.enc.EncodeElement(hdr.Source, xml.StartElement{Name: xml.Name{Local: "source"}}); err != nil {
		return err
	}
	return w.enc.EncodeElement(hdr.Database, xml.StartElement{Name: xml.Name{Local: "database"}})
}

func (w *XMLWriter) WriteMatch(m Match) error {
	return w.enc.Encode(m)
}

func (w *XMLWriter) WriteSummary(s Summary) error {
	return w.enc.Encode(s)
}

func (w *XMLWriter) Close() error {
	if err := w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "findcrypt"}}); err != nil {
		return err
	}
	return w.enc.Flush()
}
