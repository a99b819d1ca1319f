package device

import (
	"context"
	"errors"
	"time"

	"temp_regulator/internal/profile"
)

var (
	ErrNotCalibrated      = errors.New("sensor is not calibrated")
	ErrBadTarget          = errors.New("target out of range")
	ErrWrongState         = errors.New("command not allowed in current state")
	ErrProfileUnavailable = errors.New("profile is not available")
	ErrUnknownEvent       = errors.New("unknown event")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrBadIndex           = errors.New("coefficient index out of range")
	ErrStopped            = errors.New("regulator is not running")
)

// Kind selects the command.
type Kind int

const (
	CmdEvent Kind = iota + 1

	CmdAdjustPID // Index 0..2 (kp, ki, kd), Delta
	CmdResetPID
	CmdAdjustThermo // Index 0 = slope, 1 = offset, Delta
	CmdResetThermo

	CmdAdjustSetpoint // Delta
	CmdSetSetpoint    // Value

	CmdSelectProfile // Slot, 0 clears
	CmdStoreProfile  // Profile

	CmdStartHeat
	CmdStopHeat
	CmdAckAlarm

	CmdCalibAdjustRef // Delta
	CmdCalibAdvance
	CmdCalibBack
	CmdCalibConfirm
	CmdCalibCancel

	CmdTuneAdjustTarget // Delta
	CmdTuneSetTarget    // Value
	CmdTuneStart
	CmdTuneAbort

	CmdTouchReset
	CmdTouchTest
	CmdWipe
)

var kindNames = map[Kind]string{
	CmdEvent:            "event",
	CmdAdjustPID:        "adjust_pid",
	CmdResetPID:         "reset_pid",
	CmdAdjustThermo:     "adjust_thermo",
	CmdResetThermo:      "reset_thermo",
	CmdAdjustSetpoint:   "adjust_setpoint",
	CmdSetSetpoint:      "set_setpoint",
	CmdSelectProfile:    "select_profile",
	CmdStoreProfile:     "store_profile",
	CmdStartHeat:        "start_heat",
	CmdStopHeat:         "stop_heat",
	CmdAckAlarm:         "ack_alarm",
	CmdCalibAdjustRef:   "calib_adjust_ref",
	CmdCalibAdvance:     "calib_advance",
	CmdCalibBack:        "calib_back",
	CmdCalibConfirm:     "calib_confirm",
	CmdCalibCancel:      "calib_cancel",
	CmdTuneAdjustTarget: "tune_adjust_target",
	CmdTuneSetTarget:    "tune_set_target",
	CmdTuneStart:        "tune_start",
	CmdTuneAbort:        "tune_abort",
	CmdTouchReset:       "touch_reset",
	CmdTouchTest:        "touch_test",
	CmdWipe:             "wipe",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Command is the only way collaborators change the regulator.
type Command struct {
	Kind    Kind
	Event   Event
	Index   int
	Delta   float64
	Value   float64
	Slot    int
	Profile profile.Profile

	reply chan error
}

// Submit queues c for the next tick and waits for its result. It gives up
// with ErrStopped once Halt has run, and with context.DeadlineExceeded when
// the loop does not answer within submitWait.
func (r *Regulator) Submit(ctx context.Context, c Command) error {
	ctx, cancel := context.WithTimeout(ctx, r.submitWait)
	defer cancel()

	c.reply = make(chan error, 1)
	select {
	case r.commands <- c:
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.reply:
		return err
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch is Submit for a bare event.
func (r *Regulator) Dispatch(ctx context.Context, e Event) error {
	return r.Submit(ctx, Command{Kind: CmdEvent, Event: e})
}

// drain runs every queued command. Runner goroutine only.
func (r *Regulator) drain(ctx context.Context, now time.Time) {
	for {
		select {
		case c := <-r.commands:
			err := r.execute(ctx, now, c)
			if err != nil {
				r.log.Infow("command_refused", "kind", c.Kind.String(), "state", r.state.String(), "err", err)
			}
			if c.reply != nil {
				c.reply <- err
			}
		default:
			return
		}
	}
}
