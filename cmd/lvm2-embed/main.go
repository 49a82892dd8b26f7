package main

import (
	"fmt"
	"os"

	"github.com/dsoprea/go-logging"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-lvm2"
)

type rootParameters struct {
	Filepath   string `short:"f" long:"filepath" description:"Block-device or disk-image path" required:"true"`
	MaxSectors uint32 `short:"n" long:"max-sectors" description:"Maximum number of sectors to return" default:"1024"`
}

var (
	rootArguments = new(rootParameters)
)

func main() {
	defer func() {
		if state := recover(); state != nil {
			err := log.Wrap(state.(error))
			log.PrintError(err)
			os.Exit(-1)
		}
	}()

	p := flags.NewParser(rootArguments, flags.Default)

	_, err := p.Parse()
	if err != nil {
		os.Exit(1)
	}

	f, err := os.Open(rootArguments.Filepath)
	log.PanicIf(err)

	defer f.Close()

	disk := lvm2.NewFileDisk(f)
	registry := lvm2.NewMapRegistry()

	sectors, err := lvm2.Embed(disk, registry, rootArguments.MaxSectors, lvm2.EmbedTypePCBIOS)
	log.PanicIf(err)

	fmt.Printf("Bootloader-embed sectors (%d)\n", len(sectors))
	for _, sector := range sectors {
		fmt.Printf("  %d\n", sector)
	}
}
