package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dsoprea/go-logging"
	"github.com/jessevdk/go-flags"
	"github.com/theckman/yacspin"

	"github.com/dsoprea/go-lvm2"
)

type rootParameters struct {
	Filepaths []string `short:"f" long:"filepath" description:"Block-device or disk-image path to scan (repeatable)" required:"true"`
}

var (
	rootArguments = new(rootParameters)
)

func scanOne(registry lvm2.Registry, filepath string) (vg *lvm2.VG, err error) {
	f, err := os.Open(filepath)
	log.PanicIf(err)

	defer f.Close()

	disk := lvm2.NewFileDisk(f)

	vg, err = lvm2.Detect(disk, registry)
	log.PanicIf(err)

	return vg, nil
}

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

	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " scanning devices",
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
	}

	spinner, err := yacspin.New(cfg)
	log.PanicIf(err)

	err = spinner.Start()
	log.PanicIf(err)

	registry := lvm2.NewMapRegistry()

	for _, filepath := range rootArguments.Filepaths {
		spinner.Message(fmt.Sprintf("scanning %s", filepath))

		vg, err := scanOne(registry, filepath)
		log.PanicIf(err)

		if vg == nil {
			spinner.Pause()
			fmt.Printf("%s: no LVM2 label found\n\n", filepath)
			spinner.Unpause()
			continue
		}

		spinner.Pause()
		vg.Dump()
		spinner.Unpause()
	}

	err = spinner.Stop()
	log.PanicIf(err)
}
