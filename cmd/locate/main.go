// Command locate reports the observer position to a running API over NATS.
package main

import (
	"flag"
	"log"

	natsadapter "github.com/samirrijal/placepicker/internal/adapters/nats"
	"github.com/samirrijal/placepicker/internal/pkg/config"
	"github.com/samirrijal/placepicker/internal/pkg/geospatial"
)

func main() {
	lat := flag.Float64("lat", 0, "observer latitude in degrees")
	lon := flag.Float64("lon", 0, "observer longitude in degrees")
	reason := flag.String("error", "", "report the position as unavailable with this reason")
	flag.Parse()

	cfg, err := config.Load("placepicker-locate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	msg := natsadapter.PositionMessage{Lat: *lat, Lon: *lon, Error: *reason}
	if msg.Error == "" {
		if err := geospatial.Validate(msg.Lat, msg.Lon); err != nil {
			log.Fatalf("position: %v", err)
		}
	}

	nc, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Close()

	if err := natsadapter.PublishPosition(nc, msg); err != nil {
		log.Fatalf("publish: %v", err)
	}
	log.Printf("position published to %s", natsadapter.SubjectPosition)
}
