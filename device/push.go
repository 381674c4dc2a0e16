package device

import (
	"context"

	"devaccess/accessor"
	"devaccess/asyncdomain"
	"devaccess/catalogue"
	"devaccess/datatype"
	"devaccess/deverr"
	"devaccess/port"
	"devaccess/regpath"
	"devaccess/transfer"
	"devaccess/version"
)

// newInterruptAccessor builds a wait_for_new_data accessor over an
// interrupt register. The backend's dispatcher domain delivers bare
// triggers; this bridge refills the register contents with a poll read on
// every trigger and forwards the distribution's VersionNumber unchanged,
// so two accessors fed by one Distribute still compare equal in a
// ConsistencyGroup.
func newInterruptAccessor[T datatype.UserType](
	n *Numeric,
	path regpath.Path,
	info catalogue.NumericAddressedRegisterInfo,
	mode transfer.AccessMode,
	isOpen transfer.IsOpenFunc,
) (*accessor.ND[T], error) {
	if info.Access != catalogue.Interrupt || len(info.InterruptChain) == 0 {
		return nil, deverr.NewLogicf("device", "register %s does not support wait_for_new_data", path)
	}
	poll, err := accessor.NewNumericAddressed[T](path, info, n.Port(), 0, 0, info.NElements, transfer.AccessMode{Raw: mode.Raw}, isOpen)
	if err != nil {
		return nil, err
	}
	domain, err := n.InterruptDomain(context.Background(), info.InterruptChain[0])
	if err != nil {
		return nil, err
	}

	refill := func() ([][]T, transfer.Validity, error) {
		if err := poll.Read(); err != nil {
			return nil, transfer.Faulty, err
		}
		out := make([][]T, poll.NChannels())
		for c := range out {
			out[c] = append([]T(nil), poll.Channel(c)...)
		}
		return out, poll.Validity(), nil
	}

	local := asyncdomain.New[[][]T](0)
	sub := local.Subscribe()

	// Seed a fresh initial value for this subscriber; until the first
	// successful poll the accessor reports faulty zeroes.
	if buffers, validity, rerr := refill(); rerr == nil {
		local.DistributeStamped(buffers, validity, version.New())
	} else {
		local.DistributeStamped([][]T{make([]T, info.NElements)}, transfer.Faulty, version.New())
	}

	upstream := domain.Subscribe()
	go func() {
		for range upstream.Queue().Readable() {
			for {
				env, ok := upstream.Queue().Pop()
				if !ok {
					break
				}
				if env.Err != nil {
					local.SendException(env.Err)
					return
				}
				buffers, validity, rerr := refill()
				if rerr != nil {
					local.SendException(rerr)
					return
				}
				local.DistributeStamped(buffers, validity, env.Version)
			}
		}
	}()

	acc, err := accessor.NewNumericAddressed[T](path, info, n.Port(), 0, 0, info.NElements, mode, isOpen)
	if err != nil {
		return nil, err
	}
	acc.SetSubscription(sub)
	return acc, nil
}

// newInterruptTriggerAccessor builds the write-only accessor behind a
// DUMMY_INTERRUPT_n path: a zero-element void register whose write raises
// the corresponding primary interrupt on ports that can do so from
// software.
func newInterruptTriggerAccessor[T datatype.UserType](
	n *Numeric,
	path regpath.Path,
	info catalogue.NumericAddressedRegisterInfo,
	mode transfer.AccessMode,
	isOpen transfer.IsOpenFunc,
) (*accessor.ND[T], error) {
	trigger, ok := n.Port().(port.InterruptTrigger)
	if !ok {
		return nil, deverr.NewLogicf("device", "register %s: backend port cannot raise interrupts from software", path)
	}
	interruptID := info.InterruptChain[0]

	doRead := func() ([][]T, transfer.Validity, error) {
		return nil, transfer.Faulty, deverr.NewLogicf("device", "register %s is write-only", path)
	}
	doWrite := func([][]T) (bool, error) {
		trigger.TriggerInterrupt(interruptID)
		return false, nil
	}
	return accessor.NewCustom[T](path, 1, 0, mode, isOpen, doRead, doWrite), nil
}
