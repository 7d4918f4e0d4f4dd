package publish

import (
	"time"

	"github.com/tamzrod/ema-gateway/internal/instrument"
	"github.com/tamzrod/ema-gateway/internal/reading"
)

// PublishWhere mirrors config.InstrumentSection.PublishWhere: which sinks a
// channel's current/average state goes to.
type PublishWhere struct {
	MQTT bool
	HTML bool
}

// Fanout pushes one instrument's snapshot to whichever sinks the caller
// selects; the upload duty calls PublishCurrent once per instrument each
// upload period (spec.md §6).
type Fanout struct {
	mqtt    *MQTTPublisher
	html    *HTMLSink
	who     string
}

func NewFanout(mqtt *MQTTPublisher, html *HTMLSink, who string) *Fanout {
	return &Fanout{mqtt: mqtt, html: html, who: who}
}

func (f *Fanout) PublishCurrent(channel string, s instrument.Snapshot, where PublishWhere) {
	if where.MQTT && f.mqtt != nil {
		payload := NewCurrentStatePayload(f.who, channel, s)
		f.mqtt.Publish(CurrentTopic(f.mqtt.Channel()+"/"+channel), QoSCurrent, true, payload)
	}
	if where.HTML && f.html != nil {
		f.html.WriteCurrent(channel, s)
	}
}

func (f *Fanout) PublishEvent(channel, name string, fields map[string]string, at time.Time) {
	if f.mqtt == nil {
		return
	}
	payload := NewEventPayload(f.who, channel, name, fields, at)
	f.mqtt.Publish(EventsTopic(f.mqtt.Channel()+"/"+channel), QoSEvents, false, payload)
}

// PublishHistoricMinMax publishes one Daily Min/Max Dump's worth of tuples
// (spec.md §4.7's "historic minmax pull" duty).
func (f *Fanout) PublishHistoricMinMax(tuples []HistoricMinMaxTuple, at time.Time) {
	if f.mqtt == nil {
		return
	}
	payload := NewHistoricMinMaxPayload(f.who, tuples, at)
	f.mqtt.Publish(HistoricMinMaxTopic(f.mqtt.Channel()), QoSCurrent, true, payload)
}

// PublishHistoricAverage publishes one 5-minute-averages bulk dump (spec.md
// §4.7's "historic average pull" duty).
func (f *Fanout) PublishHistoricAverage(averages []reading.Vector, at time.Time) {
	if f.mqtt == nil {
		return
	}
	payload := NewHistoricAveragePayload(f.who, averages, at)
	f.mqtt.Publish(HistoricAverageTopic(f.mqtt.Channel()), QoSCurrent, true, payload)
}

func (f *Fanout) PublishRegister(insts []instrument.Instrument, at time.Time) {
	if f.mqtt == nil {
		return
	}
	payload := NewRegisterPayload(f.who, insts, at)
	f.mqtt.Publish(RegisterTopic(), QoSCurrent, true, payload)
}
