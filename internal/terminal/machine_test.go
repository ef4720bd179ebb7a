package terminal

import (
	"context"
	"errors"
	"testing"
	"time"

	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectedMachine returns a running machine connected to wisePad.
func connectedMachine(t *testing.T) *machineTestDeps {
	t.Helper()
	d := setupMachine(t, domain.Disconnected(wisePad.SerialNumber), MachineConfig{})
	d.start(t)
	require.NoError(t, d.machine.Send(domain.NewSignal(domain.SignalReconnect)))
	waitForState(t, d.machine, domain.StateConnected)
	return d
}

func receive(t *testing.T, ch <-chan domain.PaymentResult) domain.PaymentResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no payment result")
		return domain.PaymentResult{}
	}
}

// ==================== Scenario Tests ====================

func TestMachine_PairNewReader(t *testing.T) {
	d := setupMachine(t, domain.NoDevice(), MachineConfig{})
	d.start(t)

	require.NoError(t, d.machine.Send(domain.SelectLocation(frontDesk)))
	waitForState(t, d.machine, domain.StateDiscoveringAtLocation)

	require.Eventually(t, func() bool {
		d.observer.mu.Lock()
		defer d.observer.mu.Unlock()
		return len(d.observer.devices) > 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, d.machine.Send(domain.SelectDevice(wisePad)))
	waitForState(t, d.machine, domain.StateConnected)

	assert.Equal(t, domain.Connected(wisePad), d.machine.State())
	assert.Eventually(t, func() bool { return d.store.value() == "WPC-1" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.StateKind{
		domain.StateDiscoveringAtLocation,
		domain.StateConnecting,
		domain.StateConnected,
	}, d.observer.kinds())
	assert.Empty(t, d.observer.errors())
}

func TestMachine_ReconnectRememberedReader(t *testing.T) {
	d := setupMachine(t, domain.Disconnected(chipper.SerialNumber), MachineConfig{})
	d.start(t)

	require.NoError(t, d.machine.Send(domain.NewSignal(domain.SignalReconnect)))
	waitForState(t, d.machine, domain.StateConnected)

	assert.Equal(t, domain.Connected(chipper), d.machine.State())
	assert.Equal(t, []domain.StateKind{
		domain.StateSearchingBySerial,
		domain.StateConnecting,
		domain.StateConnected,
	}, d.observer.kinds())
}

func TestMachine_SearchTimesOut(t *testing.T) {
	d := setupMachine(t, domain.Disconnected("MISSING-1"), MachineConfig{SearchTimeout: 30 * time.Millisecond})
	d.start(t)

	require.NoError(t, d.machine.Send(domain.NewSignal(domain.SignalReconnect)))
	waitForState(t, d.machine, domain.StateNoDevice)

	errs := d.observer.errors()
	require.Len(t, errs, 1)
	assert.True(t, apperror.Is(errs[0], "DEV_002"))
	assert.Eventually(t, func() bool { return d.store.value() == "" }, time.Second, 5*time.Millisecond)
}

func TestMachine_DiscoveryFailure(t *testing.T) {
	d := setupMachine(t, domain.NoDevice(), MachineConfig{})
	d.sdk.discoverErr = errors.New("bluetooth off")
	d.start(t)

	require.NoError(t, d.machine.Send(domain.SelectLocation(frontDesk)))

	require.Eventually(t, func() bool { return len(d.observer.errors()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.NoDevice(), d.machine.State())
	assert.True(t, apperror.Is(d.observer.errors()[0], "DEV_004"))
}

func TestMachine_Charge(t *testing.T) {
	d := connectedMachine(t)

	reply, err := d.machine.SendCharge(tenEuros(t))
	require.NoError(t, err)

	result := receive(t, reply)
	require.Equal(t, domain.OutcomeSuccess, result.Outcome, "result: %s", result)
	assert.Equal(t, "pi_fake", result.Receipt.PaymentIntentID)

	waitForState(t, d.machine, domain.StateConnected)
	assert.Contains(t, d.observer.kinds(), domain.StateCharging)
}

func TestMachine_BackToBackCharges(t *testing.T) {
	d := connectedMachine(t)

	for i := 0; i < 3; i++ {
		reply, err := d.machine.SendCharge(tenEuros(t))
		require.NoError(t, err)

		result := receive(t, reply)
		require.Equal(t, domain.OutcomeSuccess, result.Outcome, "charge %d: %s", i, result)
	}
	waitForState(t, d.machine, domain.StateConnected)
	assert.Empty(t, d.observer.errors())
}

func TestMachine_ChargeCanceledDuringCollect(t *testing.T) {
	d := connectedMachine(t)
	collecting := make(chan struct{})
	d.sdk.mu.Lock()
	d.sdk.onCollect = func(ctx context.Context) error {
		close(collecting)
		<-ctx.Done()
		return domain.ErrCanceled
	}
	d.sdk.mu.Unlock()

	reply, err := d.machine.SendCharge(tenEuros(t))
	require.NoError(t, err)
	<-collecting

	require.NoError(t, d.machine.Cancel(context.Background()))

	result := receive(t, reply)
	assert.Equal(t, domain.OutcomeCancellation, result.Outcome)
	waitForState(t, d.machine, domain.StateConnected)

	select {
	case extra := <-reply:
		t.Fatalf("charge resolved twice: %s", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestMachine_ForgetReader(t *testing.T) {
	d := connectedMachine(t)
	require.Eventually(t, func() bool { return d.store.value() == "WPC-1" }, time.Second, 5*time.Millisecond)

	require.NoError(t, d.machine.Send(domain.NewSignal(domain.SignalForgetReader)))
	waitForState(t, d.machine, domain.StateNoDevice)

	assert.Eventually(t, func() bool { return d.store.value() == "" }, time.Second, 5*time.Millisecond)
	d.sdk.mu.Lock()
	assert.Equal(t, 1, d.sdk.disconnects)
	d.sdk.mu.Unlock()
}

func TestMachine_UnexpectedDisconnect(t *testing.T) {
	d := connectedMachine(t)

	d.sdk.sessionObserver().OnUnexpectedDisconnect(wisePad)

	waitForState(t, d.machine, domain.StateDisconnected)
	assert.Equal(t, domain.Disconnected("WPC-1"), d.machine.State())
}

func TestMachine_UserInitiatedUpdate(t *testing.T) {
	d := connectedMachine(t)

	require.NoError(t, d.machine.connection.InstallUpdate(context.Background()))

	require.Eventually(t, func() bool {
		kinds := d.observer.kinds()
		n := len(kinds)
		return n >= 2 && kinds[n-2] == domain.StateUserInitiatedUpdate && kinds[n-1] == domain.StateConnected
	}, time.Second, 5*time.Millisecond)
}

// ==================== Mandatory Update Tests ====================

func TestMachine_AutomaticUpdateDuringConnect(t *testing.T) {
	d := setupMachine(t, domain.Disconnected(wisePad.SerialNumber), MachineConfig{})
	d.sdk.onConnect = func(_ context.Context, _ domain.Device, o ports.ReaderEventObserver) error {
		o.OnUpdateStarted(domain.SoftwareUpdate{Version: "2.0.0"})
		o.OnUpdateProgress(1)
		o.OnUpdateFinished(nil)
		return nil
	}
	d.start(t)

	require.NoError(t, d.machine.Send(domain.NewSignal(domain.SignalReconnect)))

	// The late connect completion arrives after endUpdate and is a no-op.
	require.Eventually(t, func() bool { return len(d.observer.kinds()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.StateKind{
		domain.StateSearchingBySerial,
		domain.StateConnecting,
		domain.StateAutomaticUpdate,
		domain.StateConnected,
		domain.StateConnected,
	}, d.observer.kinds())
	assert.Equal(t, domain.Connected(wisePad), d.machine.State())
	assert.Empty(t, d.observer.errors())
}

func TestMachine_ConnectReturnsBeforeUpdateFinishes(t *testing.T) {
	d := setupMachine(t, domain.Disconnected(wisePad.SerialNumber), MachineConfig{})
	observers := make(chan ports.ReaderEventObserver, 1)
	d.sdk.onConnect = func(_ context.Context, _ domain.Device, o ports.ReaderEventObserver) error {
		o.OnUpdateStarted(domain.SoftwareUpdate{Version: "2.0.0"})
		observers <- o
		return nil
	}
	d.start(t)

	require.NoError(t, d.machine.Send(domain.NewSignal(domain.SignalReconnect)))
	waitForState(t, d.machine, domain.StateAutomaticUpdate)
	o := <-observers

	// The connect completion is held while the reader is still updating.
	assert.Never(t, func() bool { return d.machine.State().Kind != domain.StateAutomaticUpdate },
		50*time.Millisecond, 5*time.Millisecond)
	o.OnUpdateFinished(nil)

	require.Eventually(t, func() bool { return len(d.observer.kinds()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.StateKind{
		domain.StateSearchingBySerial,
		domain.StateConnecting,
		domain.StateAutomaticUpdate,
		domain.StateConnected,
		domain.StateConnected,
	}, d.observer.kinds())
	assert.Equal(t, domain.Connected(wisePad), d.machine.State())
	assert.Empty(t, d.observer.errors())
}

func TestMachine_ConnectFailsAfterAutomaticUpdate(t *testing.T) {
	d := setupMachine(t, domain.Disconnected(wisePad.SerialNumber), MachineConfig{})
	d.sdk.onConnect = func(_ context.Context, _ domain.Device, o ports.ReaderEventObserver) error {
		o.OnUpdateStarted(domain.SoftwareUpdate{Version: "2.0.0"})
		o.OnUpdateFinished(nil)
		return errors.New("reader rebooted")
	}
	d.start(t)

	require.NoError(t, d.machine.Send(domain.NewSignal(domain.SignalReconnect)))
	require.Eventually(t, func() bool { return len(d.observer.kinds()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.StateKind{
		domain.StateSearchingBySerial,
		domain.StateConnecting,
		domain.StateAutomaticUpdate,
		domain.StateConnected,
		domain.StateDisconnected,
	}, d.observer.kinds())

	// The connect failure belongs to a superseded operation and is dropped.
	assert.Never(t, func() bool { return d.machine.State().Kind != domain.StateDisconnected },
		50*time.Millisecond, 5*time.Millisecond)
	assert.Empty(t, d.observer.errors())
}

// ==================== Illegal Signal Tests ====================

func TestMachine_IllegalSignalRaisesOneFailure(t *testing.T) {
	d := setupMachine(t, domain.NoDevice(), MachineConfig{})
	d.start(t)

	require.NoError(t, d.machine.Send(domain.SelectLocation(frontDesk)))
	waitForState(t, d.machine, domain.StateDiscoveringAtLocation)

	reply, err := d.machine.SendCharge(tenEuros(t))
	require.NoError(t, err)

	result := receive(t, reply)
	assert.Equal(t, domain.OutcomeFailure, result.Outcome)
	assert.True(t, apperror.Is(result.Err, "TRM_001"))

	waitForState(t, d.machine, domain.StateNoDevice)
	errs := d.observer.errors()
	require.Len(t, errs, 1)
	assert.True(t, apperror.Is(errs[0], "TRM_001"))
}

func TestMachine_IllegalFailureIsOnlyReported(t *testing.T) {
	d := connectedMachine(t)
	before := len(d.observer.kinds())

	require.NoError(t, d.machine.Send(domain.SelectLocation(frontDesk)))

	require.Eventually(t, func() bool { return len(d.observer.errors()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return len(d.observer.errors()) > 1 }, 30*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, domain.Connected(wisePad), d.machine.State())
	assert.Len(t, d.observer.kinds(), before)
	assert.True(t, apperror.Is(d.observer.errors()[0], "TRM_001"))
}

// ==================== Cancel Tests ====================

func TestMachine_CancelDiscovery(t *testing.T) {
	d := setupMachine(t, domain.NoDevice(), MachineConfig{})
	d.start(t)

	require.NoError(t, d.machine.Send(domain.SelectLocation(frontDesk)))
	waitForState(t, d.machine, domain.StateDiscoveringAtLocation)

	require.NoError(t, d.machine.Cancel(context.Background()))
	waitForState(t, d.machine, domain.StateNoDevice)
	assert.Empty(t, d.observer.errors())
}

func TestMachine_CancelConnectingNotAllowed(t *testing.T) {
	d := setupMachine(t, domain.Disconnected(wisePad.SerialNumber), MachineConfig{})
	release := make(chan struct{})
	d.sdk.onConnect = func(context.Context, domain.Device, ports.ReaderEventObserver) error {
		<-release
		return nil
	}
	d.start(t)

	require.NoError(t, d.machine.Send(domain.NewSignal(domain.SignalReconnect)))
	waitForState(t, d.machine, domain.StateConnecting)

	err := d.machine.Cancel(context.Background())
	assert.True(t, apperror.Is(err, "TRM_002"))
	assert.Equal(t, domain.StateConnecting, d.machine.State().Kind)

	close(release)
	waitForState(t, d.machine, domain.StateConnected)
}

func TestMachine_CancelWithNothingInFlight(t *testing.T) {
	d := setupMachine(t, domain.NoDevice(), MachineConfig{})
	d.start(t)

	assert.NoError(t, d.machine.Cancel(context.Background()))
	assert.Equal(t, domain.NoDevice(), d.machine.State())
}

// ==================== Operation Ownership Tests ====================

func TestMachine_ChangeLocationDropsStaleFollowUp(t *testing.T) {
	d := setupMachine(t, domain.NoDevice(), MachineConfig{})
	d.start(t)

	require.NoError(t, d.machine.Send(domain.SelectLocation(frontDesk)))
	waitForState(t, d.machine, domain.StateDiscoveringAtLocation)
	require.NoError(t, d.machine.Send(domain.SelectLocation(backOffice)))

	require.Eventually(t, func() bool {
		return d.machine.State() == domain.DiscoveringAtLocation(backOffice)
	}, time.Second, 5*time.Millisecond)

	// The first scan resolves as canceled; that follow-up must not end the
	// new scan.
	assert.Never(t, func() bool { return d.machine.State().Kind != domain.StateDiscoveringAtLocation },
		50*time.Millisecond, 5*time.Millisecond)
}

func TestMachine_StoppedRejectsInput(t *testing.T) {
	d := setupMachine(t, domain.NoDevice(), MachineConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.machine.Run(ctx) }()

	cancel()
	<-d.machine.Done()

	err := d.machine.Send(domain.SelectLocation(frontDesk))
	assert.True(t, apperror.Is(err, "TRM_003"))
	_, err = d.machine.SendCharge(tenEuros(t))
	assert.True(t, apperror.Is(err, "TRM_003"))
}

func TestMachine_RunTwice(t *testing.T) {
	d := setupMachine(t, domain.NoDevice(), MachineConfig{})
	d.start(t)

	require.Eventually(t, func() bool { return d.machine.running.Load() }, time.Second, 5*time.Millisecond)
	assert.Error(t, d.machine.Run(context.Background()))
}
