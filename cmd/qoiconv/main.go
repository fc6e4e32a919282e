// Command qoiconv converts images to and from the QOI format.
//
//	qoiconv [flags] <input-image> [output.qoi]   encode PNG/JPEG/GIF to QOI
//	qoiconv [flags] <input.qoi> [output.png]     decode QOI to PNG
//	qoiconv -info <input.qoi>                    print the header
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/gift"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/LukiDS/qoicodec/imgconv"
	"github.com/LukiDS/qoicodec/qoi"
	"github.com/LukiDS/qoicodec/qoiz"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "qoiconv:", err)
		os.Exit(1)
	}
}

type options struct {
	channels  uint
	linear    bool
	zstd      bool
	level     string
	transform string
	info      bool
	verbose   bool
}

func run(args []string, stdout, stderr io.Writer) error {
	var o options

	fs := flag.NewFlagSet("qoiconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.UintVar(&o.channels, "channels", 4, "channels to store when encoding (3 or 4)")
	fs.BoolVar(&o.linear, "linear", false, "mark the image as all-linear instead of sRGB")
	fs.BoolVar(&o.zstd, "zstd", false, "wrap the encoded stream in a zstd frame ("+qoiz.Ext+")")
	fs.StringVar(&o.level, "level", "default", "zstd level: fastest, default, better or best")
	fs.StringVar(&o.transform, "transform", "", "orientation applied before encoding: fliph, flipv, rotate90, rotate180, rotate270, transpose or transverse")
	fs.BoolVar(&o.info, "info", false, "print the header of a QOI file and exit")
	fs.BoolVar(&o.verbose, "v", false, "verbose output")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return errors.New("expected an input file and an optional output file")
	}

	logger := log.New(stdout, "qoiconv: ", 0)

	inPath := fs.Arg(0)
	ext := strings.ToLower(filepath.Ext(inPath))
	base := strings.TrimSuffix(inPath, filepath.Ext(inPath))

	if o.info {
		return printInfo(inPath, ext, stdout)
	}

	if ext == ".qoi" || ext == qoiz.Ext {
		outPath := base + ".png"
		if fs.NArg() == 2 {
			outPath = fs.Arg(1)
		}
		if err := decodeQOI(inPath, outPath, ext == qoiz.Ext); err != nil {
			return errors.Wrap(err, "decode")
		}
		logger.Printf("decoded %s -> %s", inPath, outPath)
		return nil
	}

	outPath := base + ".qoi"
	if o.zstd {
		outPath = base + qoiz.Ext
	}
	if fs.NArg() == 2 {
		outPath = fs.Arg(1)
	}

	n, err := encodeQOI(inPath, outPath, o)
	if err != nil {
		return errors.Wrap(err, "encode")
	}
	logger.Printf("encoded %s -> %s (%d bytes)", inPath, outPath, n)
	if o.verbose {
		logger.Printf("channels=%d linear=%t zstd=%t transform=%q", o.channels, o.linear, o.zstd, o.transform)
	}

	return nil
}

func encodeQOI(inPath, outPath string, o options) (int, error) {
	if o.channels != 3 && o.channels != 4 {
		return 0, errors.Errorf("channels must be 3 or 4, got %d", o.channels)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return 0, errors.Wrapf(err, "read %s", inPath)
	}

	img, err = orient(img, o.transform)
	if err != nil {
		return 0, err
	}

	enc := qoi.Encoder{Channels: uint8(o.channels)}
	if o.linear {
		enc.Colorspace = qoi.Linear
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return 0, err
	}

	if o.zstd || strings.EqualFold(filepath.Ext(outPath), qoiz.Ext) {
		ok, level := zstd.EncoderLevelFromString(o.level)
		if !ok {
			return 0, errors.Errorf("unknown zstd level %q", o.level)
		}
		raw := buf.Bytes()
		buf = bytes.Buffer{}
		if err := qoiz.Compress(&buf, raw, level); err != nil {
			return 0, err
		}
	}

	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return 0, errors.WithStack(err)
	}

	return buf.Len(), nil
}

func decodeQOI(inPath, outPath string, zstdFrame bool) error {
	in, err := os.Open(inPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer in.Close()

	var img image.Image
	if zstdFrame {
		img, err = qoiz.Decode(in)
	} else {
		img, err = qoi.Decode(in)
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", inPath)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		return errors.Wrapf(err, "write %s", outPath)
	}

	return out.Close()
}

func printInfo(inPath, ext string, w io.Writer) error {
	f, err := os.Open(inPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	var r io.Reader = f
	if ext == qoiz.Ext {
		stream, err := qoiz.Decompress(f)
		if err != nil {
			return err
		}
		r = bytes.NewReader(stream)
	}

	h, err := qoi.ReadHeader(r)
	if err != nil {
		return errors.Wrapf(err, "read %s", inPath)
	}

	colorspace := "srgb"
	if h.Colorspace == qoi.Linear {
		colorspace = "linear"
	}

	_, err = fmt.Fprintf(w, "%s: %dx%d channels=%d colorspace=%s\n", inPath, h.Width, h.Height, h.Channels, colorspace)
	return err
}

// orient applies a lossless orientation change to m.
func orient(m image.Image, name string) (image.Image, error) {
	var f gift.Filter

	switch name {
	case "":
		return m, nil
	case "fliph":
		f = gift.FlipHorizontal()
	case "flipv":
		f = gift.FlipVertical()
	case "rotate90":
		f = gift.Rotate90()
	case "rotate180":
		f = gift.Rotate180()
	case "rotate270":
		f = gift.Rotate270()
	case "transpose":
		f = gift.Transpose()
	case "transverse":
		f = gift.Transverse()
	default:
		return nil, errors.Errorf("unknown transform %q", name)
	}

	g := gift.New(f)
	src := imgconv.ToNRGBA(m)
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	return dst, nil
}
