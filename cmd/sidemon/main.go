package main

import (
	"encoding/binary"
	"flag"
	"log"
	"os"

	"github.com/keebworks/sidelink.go/pkg/link/transport/mqtt"
	"github.com/keebworks/sidelink.go/pkg/link/wire"
)

var (
	mqttURL = "mqtt://localhost:1883/sidelink"
	pair    = ""
)

func init() {
	if val := os.Getenv("SIDELINK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	if val := os.Getenv("SIDELINK_PAIR"); val != "" {
		pair = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&pair, "pair", pair, "Pair to watch, all pairs when empty.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err = q.Connect(); err != nil {
		log.Fatalln(err)
	}

	pattern := "#"
	if pair != "" {
		pattern = pair + "/#"
	}
	_, err = q.Sub(pattern, func(topic string, payload []byte) {
		if len(payload) != 4 {
			log.Printf("%s: %d bytes", topic, len(payload))
			return
		}
		w := binary.LittleEndian.Uint32(payload)
		if !wire.Verify(w) {
			log.Printf("%s: bad checksum %08x", topic, w)
			return
		}
		m, err := wire.Decode(w)
		if err != nil {
			log.Printf("%s: %v: %08x", topic, err, w)
			return
		}
		log.Printf("%s: %v", topic, m)
	})
	if err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
