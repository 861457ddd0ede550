//go:build linux

package counter

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// perfConfig maps a Kind to its perf_event_open type/config pair.
type perfConfig struct {
	typ    uint32
	config uint64
}

var hardwareConfig = map[Kind]perfConfig{
	CPUCycles:          {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES},
	Instructions:       {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS},
	StallFrontend:      {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_STALLED_CYCLES_FRONTEND},
	StallBackend:       {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_STALLED_CYCLES_BACKEND},
	CacheReferences:    {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_REFERENCES},
	CacheMisses:        {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES},
	BranchInstructions: {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS},
	BranchMisses:       {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_MISSES},
}

var softwareConfig = map[Kind]perfConfig{
	CPUClock:        {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CPU_CLOCK},
	TaskClock:       {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_TASK_CLOCK},
	PageFaults:      {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS},
	ContextSwitches: {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CONTEXT_SWITCHES},
	CPUMigrations:   {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CPU_MIGRATIONS},
	MinorFaults:     {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS_MIN},
	MajorFaults:     {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS_MAJ},
	AlignmentFaults: {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_ALIGNMENT_FAULTS},
	EmulationFaults: {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_EMULATION_FAULTS},
}

// handle is one open perf_event_open file descriptor.
type handle struct {
	kind   Kind
	fd     int
	leader bool
}

// eventGroup is one leader plus its followers, sharing a single
// time_enabled/time_running pair once read from the leader.
type eventGroup struct {
	handles []handle
}

// linuxProvider implements Provider against the kernel performance-event
// interface. It is thread-bound: callers must invoke every method from
// the same OS thread that called Open, since perf_event_open counters
// are scoped to the opening task.
type linuxProvider struct {
	groups    []*eventGroup
	softTotal []handle
}

func newPlatformProvider() Provider {
	return &linuxProvider{}
}

// Open opens the grouped hardware counters (H1/H2/H3) and the nine
// software singletons, every one disabled, excluding kernel and
// hypervisor samples, requesting both time_enabled and time_running in
// the read format so snapshot() can undo multiplexing.
func (p *linuxProvider) Open(ctx context.Context) error {
	for _, kinds := range hardwareGroups {
		group, err := p.openGroup(kinds)
		if err != nil {
			p.closeOpened()

			return fmt.Errorf("counter: open hardware group leader %s: %w", kinds[0], err)
		}

		p.groups = append(p.groups, group)
	}

	for _, kind := range softwareSingletons {
		h, err := p.openSingle(kind)
		if err != nil {
			p.closeOpened()

			return fmt.Errorf("counter: open software counter %s: %w", kind, err)
		}

		p.softTotal = append(p.softTotal, h)
	}

	return nil
}

func (p *linuxProvider) openGroup(kinds []Kind) (*eventGroup, error) {
	group := &eventGroup{}

	leaderFd := -1

	for i, kind := range kinds {
		cfg := hardwareConfig[kind]
		attr := baseAttr(cfg)

		fd, err := unix.PerfEventOpen(attr, 0, -1, leaderFd, 0)
		if err != nil {
			for _, h := range group.handles {
				_ = unix.Close(h.fd)
			}

			return nil, fmt.Errorf("perf_event_open(%s): %w", kind, err)
		}

		if i == 0 {
			leaderFd = fd
		}

		group.handles = append(group.handles, handle{kind: kind, fd: fd, leader: i == 0})
	}

	return group, nil
}

func (p *linuxProvider) openSingle(kind Kind) (handle, error) {
	cfg := softwareConfig[kind]
	attr := baseAttr(cfg)

	fd, err := unix.PerfEventOpen(attr, 0, -1, -1, 0)
	if err != nil {
		return handle{}, fmt.Errorf("perf_event_open(%s): %w", kind, err)
	}

	return handle{kind: kind, fd: fd, leader: true}, nil
}

func baseAttr(cfg perfConfig) *unix.PerfEventAttr {
	return &unix.PerfEventAttr{
		Type:        cfg.typ,
		Config:      cfg.config,
		Size:        uint32(unix.SizeofPerfEventAttr),
		Bits:        unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
		Read_format: unix.PERF_FORMAT_TOTAL_TIME_ENABLED | unix.PERF_FORMAT_TOTAL_TIME_RUNNING,
	}
}

func (p *linuxProvider) closeOpened() {
	for _, g := range p.groups {
		for _, h := range g.handles {
			_ = unix.Close(h.fd)
		}
	}

	for _, h := range p.softTotal {
		_ = unix.Close(h.fd)
	}

	p.groups = nil
	p.softTotal = nil
}

// Reset zeroes every handle's accumulated value via PERF_EVENT_IOC_RESET
// on each group leader (propagating to followers) and each software
// singleton.
func (p *linuxProvider) Reset() error {
	for _, g := range p.groups {
		if err := ioctl(g.handles[0].fd, unix.PERF_EVENT_IOC_RESET); err != nil {
			return fmt.Errorf("counter: reset group leader fd=%d: %w", g.handles[0].fd, err)
		}
	}

	for _, h := range p.softTotal {
		if err := ioctl(h.fd, unix.PERF_EVENT_IOC_RESET); err != nil {
			return fmt.Errorf("counter: reset counter %s: %w", h.kind, err)
		}
	}

	return nil
}

// Enable atomically activates every group leader (the kernel schedules
// followers along with it) and every software singleton.
func (p *linuxProvider) Enable() error {
	for _, g := range p.groups {
		if err := ioctl(g.handles[0].fd, unix.PERF_EVENT_IOC_ENABLE); err != nil {
			return fmt.Errorf("counter: enable group leader fd=%d: %w", g.handles[0].fd, err)
		}
	}

	for _, h := range p.softTotal {
		if err := ioctl(h.fd, unix.PERF_EVENT_IOC_ENABLE); err != nil {
			return fmt.Errorf("counter: enable counter %s: %w", h.kind, err)
		}
	}

	return nil
}

// perfReadFormat mirrors the kernel's read(2) payload when
// PERF_FORMAT_TOTAL_TIME_ENABLED|PERF_FORMAT_TOTAL_TIME_RUNNING is set.
type perfReadFormat struct {
	Value       uint64
	TimeEnabled uint64
	TimeRunning uint64
}

// Snapshot reads every handle. A read failure on an individual handle
// marks only that field unavailable (§4.1's per-field degradation); it
// never fails the whole snapshot.
func (p *linuxProvider) Snapshot() (Snapshot, error) {
	snap := Snapshot{}

	for _, g := range p.groups {
		for _, h := range g.handles {
			v, err := readCounter(h.fd)
			if err != nil {
				snap.MarkUnavailable(h.kind)

				continue
			}

			snap.Set(h.kind, v.Value, v.TimeEnabled, v.TimeRunning)
		}
	}

	for _, h := range p.softTotal {
		v, err := readCounter(h.fd)
		if err != nil {
			snap.MarkUnavailable(h.kind)

			continue
		}

		snap.Set(h.kind, v.Value, v.TimeEnabled, v.TimeRunning)
	}

	return snap, nil
}

// Close releases every handle, software singletons first and hardware
// groups last, the reverse of open order.
func (p *linuxProvider) Close() error {
	var firstErr error

	for i := len(p.softTotal) - 1; i >= 0; i-- {
		if err := unix.Close(p.softTotal[i].fd); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for i := len(p.groups) - 1; i >= 0; i-- {
		for j := len(p.groups[i].handles) - 1; j >= 0; j-- {
			if err := unix.Close(p.groups[i].handles[j].fd); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	p.groups = nil
	p.softTotal = nil

	if firstErr != nil {
		return fmt.Errorf("counter: close: %w", firstErr)
	}

	return nil
}

func readCounter(fd int) (perfReadFormat, error) {
	buf := make([]byte, 24)

	n, err := unix.Read(fd, buf)
	if err != nil {
		return perfReadFormat{}, fmt.Errorf("read perf fd=%d: %w", fd, err)
	}

	if n < len(buf) {
		return perfReadFormat{}, fmt.Errorf("read perf fd=%d: short read (%d bytes)", fd, n)
	}

	return perfReadFormat{
		Value:       leUint64(buf[0:8]),
		TimeEnabled: leUint64(buf[8:16]),
		TimeRunning: leUint64(buf[16:24]),
	}, nil
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}

	return v
}

func ioctl(fd int, req uint) error {
	return unix.IoctlSetInt(fd, req, 0)
}

// processName returns the standard program-invocation global, per §6.
func processName() string {
	return os.Args[0]
}

// processID returns the standard getter for the calling process id.
func processID() int {
	return os.Getpid()
}
