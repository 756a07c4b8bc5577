// Command vkray opens a window and draws a triangle with Vulkan.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"
	"goki.dev/grog"

	"github.com/vkngwrapper/vkray/config"
	"github.com/vkngwrapper/vkray/logging"
	"github.com/vkngwrapper/vkray/render"
)

func main() {
	// SDL and most Vulkan window systems expect every call on the main thread
	runtime.LockOSThread()

	fs := pflag.NewFlagSet("vkray", pflag.ExitOnError)
	flags := config.BindFlags(fs)
	_ = fs.Parse(os.Args[1:])

	log := logging.Setup(os.Stderr, grog.LevelFromFlags(flags.VeryVerbose, flags.Verbose, flags.Quiet))

	cfg, err := flags.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vkray: %+v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = render.New(cfg, log).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vkray: %+v\n", err)
		stop()
		os.Exit(1)
	}
}
