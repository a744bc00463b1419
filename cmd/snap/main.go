// Package main はブラウザなしでリールを作成するコマンドです
//
// 画像ファイルまたはカメラから撮影し、フィルターを焼き込んで1枚のPNGに書き出す。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"velvetlens/internal/booth"
	"velvetlens/internal/camera"
	"velvetlens/internal/config"
	"velvetlens/internal/filter"
)

// snapOptions はコマンドのオプション
type snapOptions struct {
	configPath string
	outDir     string
	filters    []filter.ID
	useCamera  bool
	device     string
	shots      int
	interval   time.Duration
	images     []string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	opts, code := parseFlags(out, errOut, args)
	if code >= 0 {
		return code
	}

	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		cfg = loaded
	}

	session := booth.NewSession(cfg.Booth, nil)

	var err error
	if opts.useCamera {
		err = captureFromCamera(ctx, session, cfg, opts)
	} else {
		err = captureFromImages(ctx, session, opts)
	}
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	composite, err := session.Export(ctx)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	path, err := booth.SaveComposite(opts.outDir, composite)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	fmt.Fprintln(out, path)
	return 0
}

// parseFlags はオプションを解析する
// 処理を続ける場合は -1 を、終了する場合は終了コードを返す
func parseFlags(out, errOut io.Writer, args []string) (snapOptions, int) {
	flagSet := flag.NewFlagSet("snap", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	configPath := flagSet.StringP("config", "c", "", "設定ファイル (YAML)")
	outDir := flagSet.StringP("out", "o", ".", "書き出し先ディレクトリ")
	filters := flagSet.StringSliceP("filter", "f", nil, "撮影ごとのフィルター (none, sepia, grayscale, vintage)")
	useCamera := flagSet.Bool("camera", false, "画像ファイルの代わりにカメラから撮影する")
	device := flagSet.String("device", "", "カメラデバイス (デフォルト: 自動検出)")
	shots := flagSet.IntP("shots", "n", booth.DefaultReelCapacity, "カメラから撮影する枚数")
	interval := flagSet.Duration("interval", time.Second, "カメラ撮影の間隔")
	help := flagSet.BoolP("help", "h", false, "ヘルプを表示")

	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return snapOptions{}, 2
	}

	if *help {
		fmt.Fprintln(out, "使用方法:")
		fmt.Fprintln(out, "  snap [オプション] 画像...")
		fmt.Fprintln(out, "  snap --camera [オプション]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "オプション:")
		fmt.Fprint(out, flagSet.FlagUsages())
		return snapOptions{}, 0
	}

	opts := snapOptions{
		configPath: *configPath,
		outDir:     *outDir,
		useCamera:  *useCamera,
		device:     *device,
		shots:      *shots,
		interval:   *interval,
		images:     flagSet.Args(),
	}

	for _, f := range *filters {
		id, err := filter.Parse(f)
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return snapOptions{}, 2
		}
		opts.filters = append(opts.filters, id)
	}

	if !opts.useCamera && len(opts.images) == 0 {
		fmt.Fprintln(errOut, "error: 画像を1つ以上指定してください")
		return snapOptions{}, 2
	}
	if opts.useCamera && opts.shots <= 0 {
		fmt.Fprintln(errOut, "error: 撮影枚数は1以上を指定してください")
		return snapOptions{}, 2
	}

	return opts, -1
}

// filterFor はi枚目のフィルターを返す。指定が足りない場合は最後の指定を使う
func (o snapOptions) filterFor(i int) filter.ID {
	if len(o.filters) == 0 {
		return filter.None
	}
	if i < len(o.filters) {
		return o.filters[i]
	}
	return o.filters[len(o.filters)-1]
}

// captureFromImages は画像ファイルを1枚ずつ撮影する
func captureFromImages(ctx context.Context, session *booth.Session, opts snapOptions) error {
	for i, path := range opts.images {
		src, err := camera.OpenStillSource(path)
		if err != nil {
			return err
		}
		if err := src.Start(ctx); err != nil {
			return err
		}

		if err := shoot(ctx, session, src, opts.filterFor(i)); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	if kept := len(session.Reel()); len(opts.images) > kept {
		log.Printf("リールには新しい %d 枚だけが残ります", kept)
	}
	return nil
}

// captureFromCamera はカメラから一定間隔で撮影する
func captureFromCamera(ctx context.Context, session *booth.Session, cfg *config.Config, opts snapOptions) error {
	camOpts := cfg.CameraOptions()
	if opts.device != "" {
		camOpts.Device = opts.device
	}

	src, err := camera.Open(ctx, camera.NewLinuxDiscovery(), camOpts)
	if err != nil {
		return err
	}

	if err := camera.Acquire(ctx, src).Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", booth.ErrSourceUnavailable, err)
	}
	defer func() {
		_ = src.Stop(context.Background())
	}()

	for i := 0; i < opts.shots; i++ {
		if i > 0 {
			select {
			case <-time.After(opts.interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := shoot(ctx, session, src, opts.filterFor(i)); err != nil {
			return err
		}
	}
	return nil
}

// shoot はフィルターを設定して1枚撮影する
func shoot(ctx context.Context, session *booth.Session, src booth.FrameSource, id filter.ID) error {
	if err := session.SelectFilter(id); err != nil {
		return err
	}

	captured, err := session.Capture(ctx, src)
	if err != nil {
		return err
	}
	if !captured {
		return errors.New("フレームを取得できません")
	}

	log.Printf("撮影しました: %s", booth.Caption(session.Reel()[0]))
	return nil
}
