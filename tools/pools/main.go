package main

import "fmt"
import "time"
import "flag"
import "unsafe"
import "strings"
import "strconv"
import "math/rand"

import "github.com/bnclabs/golog"
import hm "github.com/dustin/go-humanize"
import "github.com/bnclabs/pagealloc/malloc"
import "github.com/bnclabs/pagealloc/pagepool"

var options struct {
	minsize  int64
	maxsize  int64
	pagesize int64
	reqsize  [2]int64 // min-size, max-size
	n        int
	seed     int64
	log      string
}

func argParse() {
	var reqsize string

	flag.Int64Var(&options.minsize, "minsize", malloc.Minsize,
		"smallest size-class")
	flag.Int64Var(&options.maxsize, "maxsize", malloc.Maxsize,
		"largest size-class")
	flag.Int64Var(&options.pagesize, "pagesize", pagepool.Defaultpagesize,
		"page size, power of 2")
	flag.StringVar(&reqsize, "reqsize", "",
		"minsize,maxsize - generate requests between [minsize,maxsize)")
	flag.IntVar(&options.n, "n", 0,
		"number of allocations to make, 0 only prints size-classes")
	flag.Int64Var(&options.seed, "seed", time.Now().UnixNano(),
		"seed for generating request sizes")
	flag.StringVar(&options.log, "log", "",
		"log level, empty to disable logging")
	flag.Parse()

	options.reqsize = [2]int64{1, options.maxsize}
	if reqsize != "" {
		for i, s := range strings.Split(reqsize, ",") {
			ln, _ := strconv.Atoi(s)
			options.reqsize[i] = int64(ln)
		}
	}
}

func main() {
	argParse()
	if options.log != "" {
		log.SetLogger(nil, map[string]interface{}{
			"log.level": options.log,
			"log.file":  "",
		})
		malloc.LogComponents("all")
	}

	tellutilization()
	if options.n > 0 {
		runload()
	}
}

func tellutilization() {
	sizes := malloc.Sizeclasses(options.minsize, options.maxsize)
	fmt.Println(sizes, options.minsize, options.maxsize)
	for i, size := range sizes[1:] {
		u := (float64(sizes[i]+size) / 2.0) / float64(size)
		fmt.Printf("size %4v, util %.4f\n", size, u)
	}
	fmt.Printf("total %v size-classes\n", len(sizes))
}

func runload() {
	setts := malloc.Defaultsettings()
	setts["minsize"], setts["maxsize"] = options.minsize, options.maxsize
	poolsetts := setts.Section("pagepool.").Trim("pagepool.")
	poolsetts["pagesize"] = options.pagesize
	pool := pagepool.New(poolsetts)
	defer pool.Release()

	reg := malloc.NewRegistry(pool, setts)
	agg := reg.Instancefor(malloc.TagAllocator)
	rnd := rand.New(rand.NewSource(options.seed))

	type block struct {
		ptr  unsafe.Pointer
		size int64
	}
	blocks := make([]block, 0, options.n)
	min, max := options.reqsize[0], options.reqsize[1]

	now := time.Now()
	for i := 0; i < options.n; i++ {
		size := rnd.Int63n(max-min) + min
		blocks = append(blocks, block{agg.Allocate(size), size})
	}
	fmt.Printf("Took %v to allocate %v blocks\n", time.Since(now), options.n)
	printutilization(reg, pool)

	// free every other block, pages survive as long as one slot lives.
	now = time.Now()
	for i := 0; i < len(blocks); i += 2 {
		agg.Deallocate(blocks[i].ptr, blocks[i].size)
	}
	fmt.Printf("Took %v to free half the blocks\n", time.Since(now))
	printutilization(reg, pool)

	for i := 1; i < len(blocks); i += 2 {
		agg.Deallocate(blocks[i].ptr, blocks[i].size)
	}
	reg.Destroy()
	fmt.Printf("Freed all blocks, pages held %v\n", agg.Npages())
}

func printutilization(reg *malloc.Registry, pool *pagepool.Pool) {
	agg := reg.Instancefor(malloc.TagAllocator)
	capacity, heap, alloc, overhead := agg.Info()
	cp, hp := hm.Bytes(uint64(capacity)), hm.Bytes(uint64(heap))
	al, ov := hm.Bytes(uint64(alloc)), hm.Bytes(uint64(overhead))
	fmsg := "Aggregate{cap:%v heap:%v alloc:%v overhead:%v pages:%v}\n"
	fmt.Printf(fmsg, cp, hp, al, ov, agg.Npages())

	stats := pool.Stats()
	resident := hm.Bytes(uint64(stats["resident"].(int64)))
	fmsg = "Pagepool{resident:%v mmaps:%v munmaps:%v cachehits:%v}\n"
	fmt.Printf(fmsg, resident, stats["n_mmaps"], stats["n_munmaps"],
		stats["n_cachehits"])

	fmt.Println(reg.Logstring(malloc.TagAllocator, true))
}
