package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/inhies/go-bytesize"
	"github.com/samber/lo"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"pixeler/internal/codec"
	"pixeler/pkg/palette"
	"pixeler/pkg/pixel"
)

func NewBot(token string, c *Converter, params *Params, dl *Downloader, tmp *TmpFs, logger *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token: token,
		Poller: &tele.LongPoller{
			Timeout: 30 * time.Second,
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	return &Bot{
		b:      b,
		c:      c,
		params: params,
		dl:     dl,
		tmp:    tmp,
		log:    logger,
	}, nil
}

type Bot struct {
	b      *tele.Bot
	c      *Converter
	params *Params
	dl     *Downloader
	tmp    *TmpFs
	log    *zap.Logger
}

func (b *Bot) reply(ctx tele.Context, res *Result) error {
	preview, err := b.c.Preview(res)
	if err != nil {
		return ctx.Reply(fmt.Sprintf("preview failed: %s", err))
	}

	bs, err := codec.PNGBytes(preview)
	if err != nil {
		return ctx.Reply(fmt.Sprintf("encode failed: %s", err))
	}

	return ctx.Reply(&tele.Photo{
		File:    tele.FromReader(bytes.NewReader(bs)),
		Caption: describe(res),
	})
}

func (b *Bot) selected(ctx tele.Context, src *Source) error {
	res, err := b.c.Select(src)
	if err != nil {
		_ = src.Free()
		return ctx.Reply(fmt.Sprintf("convert failed: %s", err))
	}
	return b.reply(ctx, res)
}

func (b *Bot) receive(ctx tele.Context, file *tele.File, name string) error {
	rc, err := b.b.File(file)
	if err != nil {
		return ctx.Reply(fmt.Sprintf("get file failed: %s", err))
	}
	defer func() {
		_ = rc.Close()
	}()

	bs, err := io.ReadAll(rc)
	if err != nil {
		return ctx.Reply(fmt.Sprintf("read file failed: %s", err))
	}

	b.log.With(zap.String("name", name), zap.String("size", bytesize.New(float64(len(bs))).String())).Debug("received")

	src, err := b.tmp.Put(name, bs)
	if err != nil {
		return ctx.Reply(fmt.Sprintf("keep file failed: %s", err))
	}
	return b.selected(ctx, src)
}

func (b *Bot) handleSource() {
	b.b.Handle(tele.OnPhoto, func(context tele.Context) error {
		photo := context.Message().Photo
		return b.receive(context, &photo.File, photo.FileID+".jpg")
	})

	b.b.Handle(tele.OnDocument, func(context tele.Context) error {
		doc := context.Message().Document
		if !codec.Supported(doc.FileName) {
			return context.Reply(fmt.Sprintf("%s is not a supported image", doc.FileName))
		}
		return b.receive(context, &doc.File, doc.FileName)
	})

	b.b.Handle("/url", func(context tele.Context) error {
		in := strings.TrimSpace(context.Message().Payload)
		if in == "" {
			return context.Reply("Usage: /url <link>")
		}

		src, err := b.dl.Fetch(in, b.tmp)
		if err != nil {
			return context.Reply(fmt.Sprintf("download failed: %s", err))
		}
		return b.selected(context, src)
	})

	b.b.Handle("/reload", func(context tele.Context) error {
		res, err := b.c.Reload()
		if err != nil {
			return context.Reply(fmt.Sprintf("reload failed: %s", err))
		}
		return b.reply(context, res)
	})

	b.b.Handle("/prev", func(context tele.Context) error {
		res, err := b.c.Prev()
		if err != nil {
			return context.Reply("Previous no item")
		}
		return b.reply(context, res)
	})

	b.b.Handle("/save", func(context tele.Context) error {
		name, err := b.c.Save()
		if err != nil {
			return context.Reply(fmt.Sprintf("save failed: %s", err))
		}
		return context.Reply(fmt.Sprintf("Saved as %s", name))
	})
}

func (b *Bot) handleConfig() {
	b.b.Handle("/size", func(context tele.Context) error {
		in := context.Message().Payload
		if in == "" {
			return context.Reply(strconv.Itoa(b.params.Size()))
		}

		size, err := strconv.Atoi(strings.TrimSpace(in))
		if err != nil {
			return context.Reply(fmt.Sprintf("change failed: %s", err))
		}

		return context.Reply(fmt.Sprintf("Pixel size %d", b.params.SetSize(size)))
	})
}

func (b *Bot) handlePalette() {
	showPalette := func(ctx tele.Context) error {
		return ctx.Reply(formatPalette(b.params.Palette()))
	}

	b.b.Handle("/palette", showPalette)

	b.b.Handle("/add", func(context tele.Context) error {
		colors, err := palette.ParseList(context.Message().Payload)
		if err != nil {
			return context.Reply(fmt.Sprintf("add failed: %s", err))
		}
		if len(colors) == 0 {
			return context.Reply("Usage: /add <color>...")
		}

		_ = b.params.UpdatePalette(func(l *palette.List) error {
			for _, c := range colors {
				l.Add(c)
			}
			return nil
		})
		return showPalette(context)
	})

	b.b.Handle("/remove", func(context tele.Context) error {
		if err := b.params.UpdatePalette(func(l *palette.List) error {
			return removeColor(l, context.Message().Payload)
		}); err != nil {
			return context.Reply(fmt.Sprintf("remove failed: %s", err))
		}
		return showPalette(context)
	})

	b.b.Handle("/clear", func(context tele.Context) error {
		_ = b.params.UpdatePalette(func(l *palette.List) error {
			l.Clear()
			return nil
		})
		return context.Reply("OK")
	})

	b.b.Handle("/savepalette", func(context tele.Context) error {
		name, err := b.c.SavePalette()
		if err != nil {
			return context.Reply(fmt.Sprintf("save failed: %s", err))
		}
		return context.Reply(fmt.Sprintf("Saved as %s", name))
	})

	b.b.Handle("/loadpalette", func(context tele.Context) error {
		in := strings.TrimSpace(context.Message().Payload)
		if in == "" {
			names, err := b.c.store.Palettes()
			if err != nil {
				return context.Reply(fmt.Sprintf("list failed: %s", err))
			}
			if len(names) == 0 {
				return context.Reply("No saved palettes")
			}
			return context.Reply(strings.Join(names, "\n"))
		}

		if _, err := b.c.LoadPalette(in); err != nil {
			return context.Reply(fmt.Sprintf("load failed: %s", err))
		}
		return showPalette(context)
	})

	b.b.Handle("/extract", func(context tele.Context) error {
		k, method, err := parseExtract(context.Message().Payload)
		if err != nil {
			return context.Reply(fmt.Sprintf("extract failed: %s", err))
		}

		if _, err := b.c.Extract(k, method); err != nil {
			return context.Reply(fmt.Sprintf("extract failed: %s", err))
		}
		return showPalette(context)
	})
}

func (b *Bot) Start() {
	b.handleSource()
	b.handleConfig()
	b.handlePalette()
	go b.b.Start()
}

func (b *Bot) Stop() {
	go b.b.Stop()
}

func describe(res *Result) string {
	b := res.Image.Bounds()
	return fmt.Sprintf("%s: %dx%d, pixel size %d, %d colors%s",
		res.Source.Name(), b.Dx(), b.Dy(), res.Size, len(res.Palette), lo.Ternary(res.Cached, " (cached)", ""))
}

func formatPalette(p pixel.Palette) string {
	if len(p) == 0 {
		return "Palette is empty, images keep their colors"
	}

	lines := lo.Map(p, func(c pixel.Color, i int) string {
		return fmt.Sprintf("#%d %s %s", i+1, palette.Hex(c), c)
	})
	return strings.Join(lines, "\n")
}

// removeColor takes a color, or "#n" for the n-th entry as listed by
// formatPalette. A "#n" beyond the palette length is read as a hex code.
func removeColor(l *palette.List, in string) error {
	in = strings.TrimSpace(in)
	if in == "" {
		return errors.New("usage: /remove <color|#n>")
	}

	if strings.HasPrefix(in, "#") {
		if n, err := strconv.Atoi(in[1:]); err == nil && n >= 1 && n <= l.Len() {
			return l.RemoveAt(n - 1)
		}
	}

	c, err := palette.Parse(in)
	if err != nil {
		return err
	}
	return l.Remove(c)
}

func parseExtract(in string) (int, palette.Method, error) {
	k, method := 8, palette.MethodKMeans

	for _, field := range strings.Fields(in) {
		if n, err := strconv.Atoi(field); err == nil {
			k = n
		} else if lo.Contains(palette.Methods, palette.Method(field)) {
			method = palette.Method(field)
		} else {
			return 0, "", fmt.Errorf("unknown argument %q, methods: %v", field, palette.Methods)
		}
	}

	return k, method, nil
}
