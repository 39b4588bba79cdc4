package codec

import "github.com/leandrodaf/blemidi/sdk/contracts"

// Controllers taking part in RPN and NRPN sequences.
const (
	ccDataEntryMSB = 6
	ccDataEntryLSB = 38
	ccNRPNLSB      = 98
	ccNRPNMSB      = 99
	ccRPNLSB       = 100
	ccRPNMSB       = 101

	parameterNone = 0x3fff
)

type parameterMode uint8

const (
	modeNone parameterMode = iota
	modeRPN
	modeNRPN
)

// parameterState accumulates the RPN/NRPN selection and data entry of one channel.
//
// A data entry MSB is held until it is completed by an LSB, or until any other
// message on the channel commits it as a 7-bit value.
type parameterState struct {
	mode   parameterMode
	number uint16
	msb    uint8
	held   bool
}

func newParameterState() parameterState {
	return parameterState{number: parameterNone}
}

// control feeds one control change and returns the parameter message it completes, if any.
func (p *parameterState) control(channel, function, value uint8) (contracts.Message, bool) {
	switch function {
	case ccRPNMSB, ccRPNLSB, ccNRPNMSB, ccNRPNLSB:
		msg, ok := p.commit(channel)
		p.selectParameter(function, value)
		return msg, ok
	case ccDataEntryMSB:
		msg, ok := p.commit(channel)
		p.msb, p.held = value, true
		return msg, ok
	case ccDataEntryLSB:
		p.held = false
		return p.message(channel, uint16(p.msb)<<7|uint16(value))
	}
	return p.commit(channel)
}

func (p *parameterState) selectParameter(function, value uint8) {
	v := uint16(value & lowMask)
	switch function {
	case ccRPNMSB:
		p.mode = modeRPN
		p.number = p.number&0x7f | v<<7
	case ccRPNLSB:
		p.mode = modeRPN
		p.number = p.number&0x3f80 | v
	case ccNRPNMSB:
		p.mode = modeNRPN
		p.number = p.number&0x7f | v<<7
	case ccNRPNLSB:
		p.mode = modeNRPN
		p.number = p.number&0x3f80 | v
	}
	p.msb = 0
}

func (p *parameterState) commit(channel uint8) (contracts.Message, bool) {
	if !p.held {
		return nil, false
	}
	p.held = false
	return p.message(channel, uint16(p.msb))
}

func (p *parameterState) message(channel uint8, value uint16) (contracts.Message, bool) {
	if p.number == parameterNone {
		return nil, false
	}
	switch p.mode {
	case modeRPN:
		return contracts.RPN{Channel: channel, Function: p.number, Value: value}, true
	case modeNRPN:
		return contracts.NRPN{Channel: channel, Function: p.number, Value: value}, true
	}
	return nil, false
}

// ParameterSequence returns the control changes that transmit an RPN (rpn true) or NRPN,
// closed by the null function so later data entries are not attributed to it.
func ParameterSequence(rpn bool, channel uint8, function, value uint16) []contracts.ControlChange {
	msbFn, lsbFn := uint8(ccNRPNMSB), uint8(ccNRPNLSB)
	if rpn {
		msbFn, lsbFn = ccRPNMSB, ccRPNLSB
	}

	seq := []contracts.ControlChange{
		{Channel: channel, Function: msbFn, Value: uint8(function>>7) & lowMask},
		{Channel: channel, Function: lsbFn, Value: uint8(function) & lowMask},
	}
	if value > lowMask {
		seq = append(seq,
			contracts.ControlChange{Channel: channel, Function: ccDataEntryMSB, Value: uint8(value>>7) & lowMask},
			contracts.ControlChange{Channel: channel, Function: ccDataEntryLSB, Value: uint8(value) & lowMask},
		)
	} else {
		seq = append(seq, contracts.ControlChange{Channel: channel, Function: ccDataEntryMSB, Value: uint8(value)})
	}
	return append(seq,
		contracts.ControlChange{Channel: channel, Function: ccRPNMSB, Value: lowMask},
		contracts.ControlChange{Channel: channel, Function: ccRPNLSB, Value: lowMask},
	)
}
