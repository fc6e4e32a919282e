// Package qoiz stores QOI streams inside a zstd frame. The QOI stream is
// kept byte-for-byte; zstd only adds entropy coding on top of it.
package qoiz

import (
	"bytes"
	"image"
	"io"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/LukiDS/qoicodec/qoi"
)

// Ext is the conventional file extension for zstd-wrapped QOI streams.
const Ext = ".qoiz"

// Encoder writes zstd-wrapped QOI streams.
type Encoder struct {
	QOI   qoi.Encoder
	Level zstd.EncoderLevel // zero means zstd.SpeedDefault
}

// Encode writes m to w as a QOI stream compressed with zstd, using default
// QOI header metadata.
func Encode(w io.Writer, m image.Image) error {
	var enc Encoder
	return enc.Encode(w, m)
}

// Encode writes m to w as a QOI stream compressed with zstd.
func (enc *Encoder) Encode(w io.Writer, m image.Image) error {
	var raw bytes.Buffer
	if err := enc.QOI.Encode(&raw, m); err != nil {
		return err
	}

	return Compress(w, raw.Bytes(), enc.Level)
}

// Compress writes an already encoded QOI stream to w inside a zstd frame.
// The stream is checked for a valid header first.
func Compress(w io.Writer, stream []byte, level zstd.EncoderLevel) error {
	if _, err := qoi.DecodeHeader(stream); err != nil {
		return err
	}

	if level == 0 {
		level = zstd.SpeedDefault
	}

	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(runtime.NumCPU()),
		zstd.WithEncoderLevel(level),
	)
	if err != nil {
		return errors.Wrap(err, "qoiz: create zstd writer")
	}
	if _, err := zw.Write(stream); err != nil {
		zw.Close()
		return errors.Wrap(err, "qoiz: compress")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "qoiz: flush")
	}

	return nil
}

// Decompress reads a zstd frame from r and returns the QOI stream it holds.
func Decompress(r io.Reader) ([]byte, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "qoiz: create zstd reader")
	}
	defer zr.Close()

	stream, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "qoiz: decompress")
	}

	if len(stream) < qoi.HeaderSize {
		return nil, qoi.ErrTruncated
	}

	return stream, nil
}

// Decode reads a zstd-wrapped QOI image from r.
func Decode(r io.Reader) (image.Image, error) {
	stream, err := Decompress(r)
	if err != nil {
		return nil, err
	}

	return qoi.Decode(bytes.NewReader(stream))
}

// DecodePixels reads a zstd-wrapped QOI stream from r and returns its raw
// pixel buffer and header, as qoi.DecodePixels does.
func DecodePixels(r io.Reader) ([]byte, qoi.Header, error) {
	stream, err := Decompress(r)
	if err != nil {
		return nil, qoi.Header{}, err
	}

	return qoi.DecodePixels(stream)
}
