package storage

import (
	"errors"
	"fmt"
	"os"

	"go.treestore/internal/logger"
	"go.treestore/internal/metrics"
)

type Options struct {
	PageSize       int
	MinFillPercent float64
	MaxFillPercent float64
}

// Small fill factors force frequent splits, raise them toward 0.4 / 0.95
// for real workloads.
var DefaultOptions = &Options{
	PageSize:       PageSize,
	MinFillPercent: 0.0125,
	MaxFillPercent: 0.025,
}

func (o *Options) Validate() error {
	// a node with a single item of any legal size must fit
	if o.PageSize < minPageSize {
		return fmt.Errorf("page size %d is below %d", o.PageSize, minPageSize)
	}
	if o.MinFillPercent <= 0 || o.MaxFillPercent <= 0 {
		return fmt.Errorf("fill percents must be positive (min=%v max=%v)", o.MinFillPercent, o.MaxFillPercent)
	}
	if o.MinFillPercent >= o.MaxFillPercent || o.MaxFillPercent > 1 {
		return fmt.Errorf("invalid fill percents (min=%v max=%v)", o.MinFillPercent, o.MaxFillPercent)
	}
	return nil
}

// Dal is the data access layer. Nothing above it touches the file directly.
type Dal struct {
	file     *os.File
	path     string
	pageSize int

	minFillPercent float64
	maxFillPercent float64

	freelist *Freelist
	meta     *Meta

	log     *logger.Logger
	metrics *metrics.Metrics
}

// Open loads an existing database file or bootstraps a new one at path
func Open(path string, opts *Options, log *logger.Logger, m *metrics.Metrics) (*Dal, error) {
	if opts == nil {
		opts = DefaultOptions
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	dal := &Dal{
		path:           path,
		pageSize:       opts.PageSize,
		minFillPercent: opts.MinFillPercent,
		maxFillPercent: opts.MaxFillPercent,
		freelist:       NewFreelist(),
		meta:           NewMeta(),
		log:            log,
		metrics:        m,
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0666)
	if errors.Is(err, os.ErrNotExist) {
		if err := dal.create(); err != nil {
			return nil, err
		}
		return dal, nil
	}

	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, ErrIO, err)
	}
	dal.file = f

	if err := dal.load(); err != nil {
		f.Close()
		return nil, err
	}

	return dal, nil
}

func (d *Dal) create() error {
	f, err := os.OpenFile(d.path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", d.path, ErrIO, err)
	}
	d.file = f

	d.meta.FreelistPage = d.freelist.GetNextPage()
	d.metrics.PageAllocated(uint64(d.freelist.MaxPage()))

	if err := d.writeMeta(); err != nil {
		d.abandon()
		return err
	}

	if err := d.writeFreelist(); err != nil {
		d.abandon()
		return err
	}

	d.log.Infof("created database %s (freelist page %d)", d.path, d.meta.FreelistPage)
	return nil
}

// abandon drops a half written file so the next Open bootstraps again
func (d *Dal) abandon() {
	d.file.Close()
	d.file = nil
	if err := os.Remove(d.path); err != nil {
		d.log.Errorf("abandon: remove %s: %v", d.path, err)
	}
}

func (d *Dal) load() error {
	info, err := d.file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w: %w", d.path, ErrIO, err)
	}

	if info.Size() < int64(d.pageSize) {
		return fmt.Errorf("load %s: meta page missing: %w", d.path, ErrNotInitialized)
	}

	if err := d.readMeta(); err != nil {
		return err
	}

	if d.meta.FreelistPage == MetaPageNum {
		return fmt.Errorf("load %s: freelist page unset: %w", d.path, ErrNotInitialized)
	}

	if err := d.checkGeometry(info.Size()); err != nil {
		return err
	}

	if err := d.readFreelist(); err != nil {
		return err
	}

	if err := d.checkAllocator(info.Size()); err != nil {
		return err
	}

	d.metrics.SetMaxPage(uint64(d.freelist.MaxPage()))
	d.log.Infof("opened database %s (root %d, freelist page %d, max page %d)",
		d.path, d.meta.Root, d.meta.FreelistPage, d.freelist.MaxPage())
	return nil
}

// The file does not record its page size. Opening it with another one shifts
// every offset, so catch the mismatch before trusting anything read.
func (d *Dal) checkGeometry(size int64) error {
	ps := int64(d.pageSize)
	if size%ps != 0 {
		return fmt.Errorf("load %s: %d bytes is not a whole number of %d byte pages: %w",
			d.path, size, ps, ErrCorruptTree)
	}
	if int64(d.meta.FreelistPage) >= size/ps {
		return fmt.Errorf("load %s: freelist page %d past end of file with %d byte pages: %w",
			d.path, d.meta.FreelistPage, ps, ErrCorruptTree)
	}
	return nil
}

// Every page in the file was handed out by the allocator
func (d *Dal) checkAllocator(size int64) error {
	maxPage := d.freelist.MaxPage()
	if maxPage < d.meta.FreelistPage || d.meta.Root > maxPage {
		return fmt.Errorf("load %s: max page %d below freelist page %d or root %d: %w",
			d.path, maxPage, d.meta.FreelistPage, d.meta.Root, ErrCorruptTree)
	}
	if size/int64(d.pageSize) > int64(maxPage)+1 {
		return fmt.Errorf("load %s: %d pages on disk but max page is %d: %w",
			d.path, size/int64(d.pageSize), maxPage, ErrCorruptTree)
	}
	return nil
}

func (d *Dal) Close() error {
	if d.file == nil {
		return nil
	}

	if err := d.file.Sync(); err != nil {
		d.log.Errorf("Close: sync %s: %v", d.path, err)
	}

	err := d.file.Close()
	d.file = nil
	if err != nil {
		return fmt.Errorf("close %s: %w: %w", d.path, ErrIO, err)
	}
	return nil
}

func (d *Dal) PageSize() int {
	return d.pageSize
}

func (d *Dal) Meta() Meta {
	return *d.meta
}

func (d *Dal) Freelist() *Freelist {
	return d.freelist
}

// AllocateEmptyPage does no I/O
func (d *Dal) AllocateEmptyPage(num PageNum) *Page {
	return NewPage(num, d.pageSize)
}

func (d *Dal) ReadPage(num PageNum) (*Page, error) {
	p := d.AllocateEmptyPage(num)

	offset := int64(num) * int64(d.pageSize)
	if _, err := d.file.ReadAt(p.Data, offset); err != nil {
		return nil, fmt.Errorf("read page %d: %w: %w", num, ErrIO, err)
	}

	d.metrics.PageRead()
	return p, nil
}

// WritePage also rewrites the freelist page so allocator state on disk
// always matches the pages it describes
func (d *Dal) WritePage(p *Page) error {
	return d.writePages(p)
}

func (d *Dal) writeToDisk(p *Page) error {
	offset := int64(p.Num) * int64(d.pageSize)

	n, err := d.file.WriteAt(p.Data, offset)
	if err != nil {
		d.log.Errorf("writeToDisk: page %d: %v", p.Num, err)
		return fmt.Errorf("write page %d: %w: %w", p.Num, ErrIO, err)
	}
	if n != d.pageSize {
		return fmt.Errorf("write page %d: short write %d/%d: %w", p.Num, n, d.pageSize, ErrIO)
	}

	d.metrics.PageWritten()
	return nil
}

func (d *Dal) readMeta() error {
	p, err := d.ReadPage(MetaPageNum)
	if err != nil {
		return err
	}
	return d.meta.Deserialize(p.Data)
}

func (d *Dal) writeMeta() error {
	p := d.AllocateEmptyPage(MetaPageNum)
	if err := d.meta.Serialize(p.Data); err != nil {
		return err
	}
	return d.writeToDisk(p)
}

func (d *Dal) readFreelist() error {
	p, err := d.ReadPage(d.meta.FreelistPage)
	if err != nil {
		return err
	}
	return d.freelist.Deserialize(p.Data)
}

func (d *Dal) writeFreelist() error {
	p := d.AllocateEmptyPage(d.meta.FreelistPage)
	if err := d.freelist.Serialize(p.Data); err != nil {
		return err
	}
	return d.writeToDisk(p)
}

// SetRoot persists a new root page number in the meta page
func (d *Dal) SetRoot(root PageNum) error {
	if d.meta.Root == root {
		return nil
	}
	d.meta.Root = root
	return d.writeMeta()
}

func (d *Dal) allocatePage() PageNum {
	num := d.freelist.GetNextPage()
	d.metrics.PageAllocated(uint64(d.freelist.MaxPage()))
	return num
}

// rollback returns pages handed out since mark was taken, for changes that
// failed before anything was written
func (d *Dal) rollback(mark *Freelist) {
	d.freelist.maxPage = mark.maxPage
	d.freelist.releasedPages = mark.releasedPages
	d.metrics.SetMaxPage(uint64(mark.maxPage))
}

// ReleasePage hands num back to the freelist, no reachability check is made
func (d *Dal) ReleasePage(num PageNum) {
	if num == MetaPageNum || num == d.meta.FreelistPage {
		d.log.Warnf("ReleasePage: refusing to release reserved page %d", num)
		return
	}
	d.freelist.ReleasePage(num)
	d.metrics.PageReleased()
}
