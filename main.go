package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/caarlos0/env/v6"
	"github.com/rr4c/gorr4c/car"
	"github.com/rr4c/gorr4c/car/gpio"
	"gopkg.in/yaml.v2"
)

type EnvConfig struct {
	SRCDIR    string `env:"SRCDIR" envDefault:"."`
	DEBUG     bool   `env:"DEBUG" envDefault:"0"`
	SIMULATED bool   `env:"SIMULATED" envDefault:"0"`
}

var (
	ENV *EnvConfig
)

func init() {
	ENV = new(EnvConfig)
	env.Parse(ENV)
}

func main() {
	// process flags
	simulated := flag.Bool("sim", false, "Run the car against a simulated chip")
	configFile := flag.String("config", "", "Path to a yaml config overriding the stock pin assignment")
	demo := flag.Bool("demo", false, "Run the demo sequence and exit")
	flag.Parse()

	config := car.DefaultConfig()
	if *configFile != "" {
		filename, err := filepath.Abs(*configFile)
		if err != nil {
			panic(err)
		}
		yamlFile, err := ioutil.ReadFile(filename)
		if err != nil {
			panic(fmt.Sprintf("Unable to read yaml file: %v", err))
		}
		if err = yaml.Unmarshal(yamlFile, &config); err != nil {
			panic(fmt.Sprintf("Unable to unmarshal yaml: %v", err))
		}
	}

	var (
		robot *car.Car
		err   error
	)
	if *simulated || ENV.SIMULATED {
		println("Creating simulator")
		robot, _, err = car.NewSimulatedCar(config)
	} else {
		robot, err = car.NewCar(config, gpio.NewRPiChip())
	}
	if err != nil {
		log.Fatalf("Unable to initialize car: %v", err)
	}
	defer robot.Shutdown()

	// make sure ctrl-c still parks the hardware
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		robot.Shutdown()
		os.Exit(0)
	}()

	if *demo {
		runDemo(robot)
		return
	}

	//---
	// Create a local shell
	//---
	decoder := car.NewDecoder(robot)

	shell := ishell.New()
	shell.Println("4WD car development shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "drive",
		Help: "drive <forward|backward|left|right|stop> [speed]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("usage: drive <direction> [speed]"))
				return
			}
			speed := 50
			if len(c.Args) >= 2 {
				speed, _ = strconv.Atoi(c.Args[1])
			}
			if err := robot.Drive(car.Direction(c.Args[0]), uint8(speed)); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "spin",
		Help: "spin <left|right> [speed]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("usage: spin <left|right> [speed]"))
				return
			}
			speed := 50
			if len(c.Args) >= 2 {
				speed, _ = strconv.Atoi(c.Args[1])
			}
			if err := robot.Spin(car.Direction(c.Args[0]), uint8(speed)); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "stop both motor channels",
		Func: func(c *ishell.Context) {
			if err := robot.Stop(); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "servo",
		Help: "servo <front|pan|tilt> <angle>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: servo <front|pan|tilt> <angle>"))
				return
			}
			angle, _ := strconv.Atoi(c.Args[1])
			if err := robot.SetServoAngle(car.ServoChannel(c.Args[0]), uint8(angle)); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "distance",
		Help: "read the ultrasonic ranger once",
		Func: func(c *ishell.Context) {
			r, err := robot.ReadDistance()
			if err != nil {
				c.Err(err)
				return
			}
			if !r.Valid {
				c.Printf("%.1fcm (out of range)\n", r.CM)
				return
			}
			c.Printf("%.1fcm\n", r.CM)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "sensors",
		Help: "dump the digital sensor states",
		Func: func(c *ishell.Context) {
			irL, irR := robot.Sensors.IRProximities()
			t1, t2, t3, t4 := robot.Sensors.Tracking()
			ldrL, ldrR := robot.Sensors.LDR()
			c.Printf("ir: %v %v\n", irL, irR)
			c.Printf("track: %v %v %v %v\n", t1, t2, t3, t4)
			c.Printf("ldr: %v %v\n", ldrL, ldrR)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "lights",
		Help: "lights <red> <green> <blue> (0-100)",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 3 {
				c.Err(fmt.Errorf("usage: lights <red> <green> <blue>"))
				return
			}
			var rgb [3]int
			for i, a := range c.Args {
				rgb[i], _ = strconv.Atoi(a)
			}
			if err := robot.Lights(uint8(rgb[0]), uint8(rgb[1]), uint8(rgb[2])); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "beep",
		Help: "beep [milliseconds]",
		Func: func(c *ishell.Context) {
			d := 100
			if len(c.Args) >= 1 {
				d, _ = strconv.Atoi(c.Args[0])
			}
			if err := robot.Beep(time.Duration(d) * time.Millisecond); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "fan",
		Help: "fan [seconds]",
		Func: func(c *ishell.Context) {
			d := 2
			if len(c.Args) >= 1 {
				d, _ = strconv.Atoi(c.Args[0])
			}
			if err := robot.Blow(time.Duration(d) * time.Second); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "decode",
		Help: "decode <frame> - feed a raw command frame, e.g. $RR4W,MTR:50:50#",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: decode <frame>"))
				return
			}
			if err := decoder.Decode(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "demo",
		Help: "run the demo sequence",
		Func: func(c *ishell.Context) {
			runDemo(robot)
		},
	})

	shell.Run()
}

// runDemo exercises each subsystem in turn, the same loop used on the bench
// to check a freshly assembled chassis.
func runDemo(robot *car.Car) {
	fmt.Println("whistle")
	robot.Whistle()

	fmt.Println("lights")
	for _, rgb := range [][3]uint8{{100, 0, 0}, {0, 100, 0}, {0, 0, 100}, {0, 0, 0}} {
		robot.Lights(rgb[0], rgb[1], rgb[2])
		time.Sleep(300 * time.Millisecond)
	}

	fmt.Println("camera sweep")
	for _, angle := range []uint8{0, 180, 90} {
		robot.SetServoAngle(car.ServoPan, angle)
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("driving")
	steps := []struct {
		direction car.Direction
		speed     uint8
		hold      time.Duration
	}{
		{car.Forward, 40, time.Second},
		{car.Right, 40, 500 * time.Millisecond},
		{car.Backward, 40, time.Second},
		{car.Left, 40, 500 * time.Millisecond},
	}
	for _, s := range steps {
		if err := robot.Drive(s.direction, s.speed); err != nil {
			log.Printf("demo drive failed: %v", err)
			break
		}
		time.Sleep(s.hold)
	}
	robot.Stop()

	fmt.Println("ranging")
	for i := 0; i < 5; i++ {
		r, err := robot.ReadDistance()
		if err != nil {
			fmt.Printf("  no echo: %v\n", err)
		} else {
			fmt.Printf("  %.1fcm valid=%v\n", r.CM, r.Valid)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
