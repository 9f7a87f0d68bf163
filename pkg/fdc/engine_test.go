package fdc

import (
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/xelalexv/wd1770/pkg/catalog"
	"github.com/xelalexv/wd1770/pkg/gateway"
	"github.com/xelalexv/wd1770/pkg/pin"
	"github.com/xelalexv/wd1770/pkg/pin/fake"
	"github.com/xelalexv/wd1770/pkg/storage"
)

func testAssignment() pin.Assignment {
	return pin.Assignment{
		D0: 0, D1: 1, D2: 2, D3: 3, D4: 4, D5: 5, D6: 6, D7: 7,
		A0: 8, A1: 9, CS: 10, RW: 11, INTRQ: 12, DRQ: 13,
		DDEN: 14, DS0: 15, DS1: 16,
	}
}

type clockStub struct {
	t time.Duration
}

func (c *clockStub) now() time.Duration { return c.t }
func (c *clockStub) advance(d time.Duration) { c.t += d }

// testRig bundles an Engine with a fake bus and a clock the test fully
// controls, plus a catalog/gateway pair over an in-memory filesystem with
// one bound image in slot 0.
type testRig struct {
	engine  *Engine
	bus     *fake.Bus
	assign  pin.Assignment
	clock   *clockStub
	cat     *catalog.Catalog
	gateway *gateway.Gateway
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	fs := afero.NewMemMapFs()
	geometry := make([]byte, 40*9*512)
	if err := afero.WriteFile(fs, "work.img", geometry, 0644); err != nil {
		t.Fatalf("seed image: %v", err)
	}
	backend := storage.NewAferoBackend(fs, ".")

	cat := catalog.New(backend, "slots.cfg")
	if err := cat.Enumerate(); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if err := cat.Bind(0, 0); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	gw := gateway.New(backend)
	bus := fake.New()
	assign := testAssignment()

	bus.Write(assign.CS, true) // de-asserted before the engine ever ticks

	clk := &clockStub{}
	e := New(assign, bus, clk.now, cat, gw)

	return &testRig{engine: e, bus: bus, assign: assign, clock: clk, cat: cat, gateway: gw}
}

func (r *testRig) setAddr(addr int) {
	r.bus.Write(r.assign.A0, addr&0x1 != 0)
	r.bus.Write(r.assign.A1, addr&0x2 != 0)
}

func (r *testRig) setData(v byte) {
	pins := r.assign.DataPins()
	for i, p := range pins {
		r.bus.Write(p, v&(1<<uint(i)) != 0)
	}
}

func (r *testRig) readData() byte {
	var v byte
	for i, p := range r.assign.DataPins() {
		if r.bus.Read(p) {
			v |= 1 << uint(i)
		}
	}
	return v
}

// writeReg performs one host write cycle: assert address+data+CS, tick,
// then de-assert CS and tick once more to release the bus.
func (r *testRig) writeReg(addr int, value byte) {
	r.setAddr(addr)
	r.bus.Write(r.assign.RW, false)
	r.setData(value)
	r.bus.Write(r.assign.CS, false)
	r.engine.Tick()
	r.bus.Write(r.assign.CS, true)
	r.engine.Tick()
}

// readReg performs one host read cycle and returns the byte the engine
// drove onto the data bus.
func (r *testRig) readReg(addr int) byte {
	r.setAddr(addr)
	r.bus.Write(r.assign.RW, true)
	r.bus.Write(r.assign.CS, false)
	r.engine.Tick()
	v := r.readData()
	r.bus.Write(r.assign.CS, true)
	r.engine.Tick()
	return v
}

// idle advances the clock and ticks the engine n times with no bus
// activity, for letting timed transitions (step rate, settle) elapse.
func (r *testRig) idle(n int, step time.Duration) {
	for i := 0; i < n; i++ {
		r.clock.advance(step)
		r.engine.Tick()
	}
}

func TestRestoreHomesToTrackZeroAndRaisesIntrq(t *testing.T) {

	r := newTestRig(t)
	r.writeReg(RegStatusCommand, cmdRestore)

	if !r.engine.Busy() {
		t.Fatal("expected engine busy immediately after RESTORE")
	}
	if r.bus.Read(r.assign.INTRQ) {
		t.Fatal("INTRQ must not be asserted before the step rate elapses")
	}

	r.idle(1, StepRate6ms+time.Microsecond)

	if r.engine.Busy() {
		t.Fatal("expected engine idle after RESTORE completes")
	}
	if r.engine.CurrentTrack() != 0 {
		t.Errorf("expected track 0, got %d", r.engine.CurrentTrack())
	}
	if !r.bus.Read(r.assign.INTRQ) {
		t.Fatal("expected INTRQ asserted after RESTORE completes")
	}

	status := r.readReg(RegStatusCommand)
	if status&StatusBusy != 0 {
		t.Errorf("status still shows busy: 0x%02X", status)
	}
	if r.bus.Read(r.assign.INTRQ) {
		t.Error("reading the status register should clear INTRQ")
	}
}

func TestSeekMovesToDataRegisterTarget(t *testing.T) {

	r := newTestRig(t)
	r.writeReg(RegData, 20)
	r.writeReg(RegStatusCommand, cmdSeek|modUpdateTrack)

	r.idle(1, StepRate6ms+time.Microsecond)

	if r.engine.CurrentTrack() != 20 {
		t.Errorf("expected current track 20, got %d", r.engine.CurrentTrack())
	}
	if got := r.readReg(RegTrack); got != 20 {
		t.Errorf("expected Track register 20, got %d", got)
	}
}

func TestSeekWithoutUpdateModifierLeavesTrackRegisterAlone(t *testing.T) {

	r := newTestRig(t)
	r.writeReg(RegTrack, 5)
	r.writeReg(RegData, 20)
	r.writeReg(RegStatusCommand, cmdSeek) // no modUpdateTrack bit

	r.idle(1, StepRate6ms+time.Microsecond)

	if r.engine.CurrentTrack() != 20 {
		t.Errorf("expected head to move to track 20, got %d", r.engine.CurrentTrack())
	}
	if got := r.readReg(RegTrack); got != 5 {
		t.Errorf("expected Track register to stay 5, got %d", got)
	}
}

func TestStepInAndOutMoveOneTrack(t *testing.T) {

	r := newTestRig(t)
	r.writeReg(RegData, 10)
	r.writeReg(RegStatusCommand, cmdSeek|modUpdateTrack)
	r.idle(1, StepRate6ms+time.Microsecond)

	r.writeReg(RegStatusCommand, cmdStepIn|modUpdateTrack)
	r.idle(1, StepRate6ms+time.Microsecond)
	if r.engine.CurrentTrack() != 11 {
		t.Errorf("expected track 11 after STEP IN, got %d", r.engine.CurrentTrack())
	}

	r.writeReg(RegStatusCommand, cmdStepOut|modUpdateTrack)
	r.idle(1, StepRate6ms+time.Microsecond)
	if r.engine.CurrentTrack() != 10 {
		t.Errorf("expected track 10 after STEP OUT, got %d", r.engine.CurrentTrack())
	}
}

func TestStepClampsAtTrackZero(t *testing.T) {
	r := newTestRig(t)
	r.writeReg(RegStatusCommand, cmdStepOut|modUpdateTrack)
	r.idle(1, StepRate6ms+time.Microsecond)
	if r.engine.CurrentTrack() != 0 {
		t.Errorf("expected track to clamp at 0, got %d", r.engine.CurrentTrack())
	}
}

func TestHeadLoadModifierInsertsSettleDelay(t *testing.T) {

	r := newTestRig(t)
	r.writeReg(RegData, 5)
	r.writeReg(RegStatusCommand, cmdSeek|modHeadLoad)

	r.idle(1, StepRate6ms+time.Microsecond)
	if r.engine.State() != StateSettling {
		t.Fatalf("expected SETTLING state, got %s", r.engine.State())
	}
	if !r.engine.Busy() {
		t.Fatal("expected engine still busy during settle")
	}

	r.idle(1, HeadSettleTime+time.Microsecond)
	if r.engine.Busy() {
		t.Fatal("expected engine idle after settle elapses")
	}
}

func TestReadSectorTransfersStagedBytes(t *testing.T) {

	r := newTestRig(t)

	fs := afero.NewMemMapFs()
	// overwrite the backing image with a recognizable pattern at track
	// 0 sector 1.
	geometry := make([]byte, 40*9*512)
	for i := 0; i < 512; i++ {
		geometry[i] = byte(i)
	}
	if err := afero.WriteFile(fs, "work.img", geometry, 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	backend := storage.NewAferoBackend(fs, ".")
	cat := catalog.New(backend, "slots.cfg")
	if err := cat.Enumerate(); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if err := cat.Bind(0, 0); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	gw := gateway.New(backend)
	r.engine = New(r.assign, r.bus, r.clock.now, cat, gw)
	r.bus.Write(r.assign.CS, true)

	r.writeReg(RegTrack, 0)
	r.writeReg(RegSector, 1)
	r.writeReg(RegStatusCommand, cmdReadSec)

	if r.engine.State() != StateReadingSector {
		t.Fatalf("expected READING_SECTOR, got %s", r.engine.State())
	}
	if !r.bus.Read(r.assign.DRQ) {
		t.Fatal("expected DRQ asserted for a ready sector (SectorIOSettle=0)")
	}

	for i := 0; i < 512; i++ {
		got := r.readReg(RegData)
		if got != byte(i) {
			t.Fatalf("byte %d: got %d want %d", i, got, byte(i))
		}
	}

	if r.bus.Read(r.assign.DRQ) {
		t.Error("expected DRQ to drop once the sector is fully drained")
	}
	if r.engine.Busy() {
		t.Error("expected engine idle after single-sector read completes")
	}
	if !r.bus.Read(r.assign.INTRQ) {
		t.Error("expected INTRQ asserted after read completes")
	}
}

func TestWriteSectorPersistsThroughGateway(t *testing.T) {

	r := newTestRig(t)

	r.writeReg(RegTrack, 2)
	r.writeReg(RegSector, 4)
	r.writeReg(RegStatusCommand, cmdWriteSec)

	if r.engine.State() != StateWaitingForDataIn {
		t.Fatalf("expected WAITING_FOR_DATA_IN, got %s", r.engine.State())
	}
	if !r.bus.Read(r.assign.DRQ) {
		t.Fatal("expected DRQ asserted to request the first byte")
	}

	for i := 0; i < 512; i++ {
		r.writeReg(RegData, byte(i))
	}

	if r.engine.Busy() {
		t.Error("expected engine idle after single-sector write completes")
	}
	if !r.bus.Read(r.assign.INTRQ) {
		t.Error("expected INTRQ asserted after write completes")
	}

	binding, err := r.cat.Binding(0)
	if err != nil {
		t.Fatalf("Binding: %v", err)
	}
	readBack := make([]byte, binding.Descriptor.SectorSize)
	if err := r.gateway.Read(&binding, 2, 4, readBack); err != nil {
		t.Fatalf("Read back: %v", err)
	}
	for i := range readBack {
		if readBack[i] != byte(i) {
			t.Fatalf("byte %d: got %d want %d", i, readBack[i], byte(i))
		}
	}
}

func TestWriteSectorRejectedWhenWriteProtected(t *testing.T) {

	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "ro.img", make([]byte, 40*9*512), 0644)
	backend := storage.NewAferoBackend(fs, ".")
	cat := catalog.New(backend, "slots.cfg")
	if err := cat.Enumerate(); err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	entries := cat.List()
	entries[0].WriteProtected = true
	if err := cat.Bind(0, 0); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	r := newTestRig(t)
	r.engine = New(r.assign, r.bus, r.clock.now, cat, gateway.New(backend))
	r.bus.Write(r.assign.CS, true)

	r.writeReg(RegStatusCommand, cmdWriteSec)

	status := r.readReg(RegStatusCommand)
	if status&StatusWriteProtect == 0 {
		t.Errorf("expected WRITE PROTECT status bit, got 0x%02X", status)
	}
	if r.engine.Busy() {
		t.Error("expected engine to reject the command immediately")
	}
}

func TestReadSectorOutOfRangeRaisesRecordNotFound(t *testing.T) {

	r := newTestRig(t)
	r.writeReg(RegSector, 200)
	r.writeReg(RegStatusCommand, cmdReadSec)

	status := r.readReg(RegStatusCommand)
	if status&StatusRNF == 0 {
		t.Errorf("expected RECORD NOT FOUND status bit, got 0x%02X", status)
	}
}

func TestMultiSectorReadAdvancesSectorRegister(t *testing.T) {

	r := newTestRig(t)
	r.writeReg(RegSector, 1)
	r.writeReg(RegStatusCommand, cmdReadSecs)

	for i := 0; i < 512; i++ {
		r.readReg(RegData)
	}

	if got := r.readReg(RegSector); got != 2 {
		t.Errorf("expected Sector register to advance to 2, got %d", got)
	}
	if r.engine.State() != StateReadingSector {
		t.Fatalf("expected engine to resume reading sector 2, got %s", r.engine.State())
	}
}

// TestMultiSectorReadToEndOfTrackCompletesCleanly drives READ SECTORS from
// sector 1 through every sector of the track (newTestRig's image has 9
// sectors/track). The last sector must finish with status 0, not RECORD NOT
// FOUND - a bare "sector > SectorsPerTrack" check would instead overrun the
// sector register by one and misreport the clean end of a multi-sector
// transfer as an error.
func TestMultiSectorReadToEndOfTrackCompletesCleanly(t *testing.T) {

	r := newTestRig(t)
	r.writeReg(RegSector, 1)
	r.writeReg(RegStatusCommand, cmdReadSecs)

	const sectorsPerTrack = 9
	for sec := 0; sec < sectorsPerTrack; sec++ {
		for i := 0; i < 512; i++ {
			r.readReg(RegData)
		}
	}

	if r.engine.Busy() {
		t.Fatal("expected engine idle after the last sector of the track")
	}
	if r.engine.State() != StateIdle {
		t.Errorf("expected IDLE, got %s", r.engine.State())
	}
	if !r.bus.Read(r.assign.INTRQ) {
		t.Error("expected INTRQ asserted on clean completion")
	}

	status := r.readReg(RegStatusCommand)
	if status&StatusRNF != 0 {
		t.Errorf("expected no RECORD NOT FOUND at end of track, got status 0x%02X", status)
	}
}

// TestMultiSectorWriteToEndOfTrackCompletesCleanly mirrors
// TestMultiSectorReadToEndOfTrackCompletesCleanly for WRITE SECTORS.
func TestMultiSectorWriteToEndOfTrackCompletesCleanly(t *testing.T) {

	r := newTestRig(t)
	r.writeReg(RegSector, 1)
	r.writeReg(RegStatusCommand, cmdWriteSecs)

	const sectorsPerTrack = 9
	for sec := 0; sec < sectorsPerTrack; sec++ {
		for i := 0; i < 512; i++ {
			r.writeReg(RegData, byte(i))
		}
	}

	if r.engine.Busy() {
		t.Fatal("expected engine idle after the last sector of the track")
	}
	if r.engine.State() != StateIdle {
		t.Errorf("expected IDLE, got %s", r.engine.State())
	}

	status := r.readReg(RegStatusCommand)
	if status&StatusRNF != 0 {
		t.Errorf("expected no RECORD NOT FOUND at end of track, got status 0x%02X", status)
	}
}

func TestForceInterruptAbortsImmediately(t *testing.T) {

	r := newTestRig(t)
	r.writeReg(RegStatusCommand, cmdRestore)
	if !r.engine.Busy() {
		t.Fatal("expected RESTORE in progress")
	}

	r.writeReg(RegStatusCommand, cmdForceInt)

	if r.engine.Busy() {
		t.Error("expected FORCE INTERRUPT to abort the in-progress command")
	}
	if r.engine.State() != StateIdle {
		t.Errorf("expected IDLE state, got %s", r.engine.State())
	}
}

func TestDataBusReleasesAfterHoldTimeout(t *testing.T) {

	r := newTestRig(t)
	r.setAddr(RegTrack)
	r.bus.Write(r.assign.RW, true)
	r.bus.Write(r.assign.CS, false)
	r.engine.Tick()

	if r.bus.Direction(r.assign.D0) != pin.Output {
		t.Fatal("expected data bus driven during a read cycle")
	}

	r.clock.advance(DataBusHoldTime + time.Microsecond)
	r.engine.Tick()

	if r.bus.Direction(r.assign.D0) != pin.Input {
		t.Error("expected data bus released after the hold window elapses")
	}
}

func TestDensityEnableDeassertedStopsBusService(t *testing.T) {

	r := newTestRig(t)
	r.bus.Write(r.assign.DDEN, true) // de-assert (active low)

	r.writeReg(RegStatusCommand, cmdRestore)

	if r.engine.Busy() {
		t.Error("expected command to be ignored while density-enable is de-asserted")
	}
}

func TestDriveSelectSwitchesActiveDrive(t *testing.T) {

	r := newTestRig(t)
	if r.engine.ActiveDrive() != 0 {
		t.Fatalf("expected drive 0 selected by default, got %d", r.engine.ActiveDrive())
	}

	r.bus.Write(r.assign.DS0, true) // de-assert DS0
	r.bus.Write(r.assign.DS1, false) // assert DS1
	r.engine.Tick()

	if r.engine.ActiveDrive() != 1 {
		t.Errorf("expected drive 1 selected, got %d", r.engine.ActiveDrive())
	}
}

func TestMotorReportsOnWhileBusyAndOffAfterDelay(t *testing.T) {

	r := newTestRig(t)
	r.engine.MotorOffDelay = 20 * time.Millisecond

	r.writeReg(RegStatusCommand, cmdRestore)
	if !r.engine.MotorOn() {
		t.Fatal("expected motor on while a command is in progress")
	}

	r.idle(1, StepRate6ms+time.Microsecond)
	if !r.engine.MotorOn() {
		t.Fatal("expected motor still on immediately after command completes")
	}

	r.idle(1, 25*time.Millisecond)
	if r.engine.MotorOn() {
		t.Error("expected motor to turn off after MotorOffDelay elapses")
	}
}
