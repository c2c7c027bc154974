package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inertial_config.txt")
	test.That(t, os.WriteFile(path, []byte(body), 0o600), test.ShouldBeNil)
	return path
}

func TestLoad(t *testing.T) {
	t.Run("all keys", func(t *testing.T) {
		path := writeConfig(t, `
# platform
SENSOR=MPU
I2C_BUS=1
IMU_I2C_ADDR=0x69
GPIO_INT_CHIP=1
GPIO_INT_PIN=4
LOG_LEVEL=Debug

MQTT_BROKER=tcp://pi:1883
MQTT_CLIENT_ID=stream-1
MQTT_TOPIC=imu/attitude
WEB_SERVER_PORT=9000
DISPLAY_I2C_BUS=1
DISPLAY_I2C_ADDR=0x3C
DISPLAY_UPDATE_INTERVAL=250
`)
		cfg, err := Load(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.Sensor, test.ShouldEqual, SensorMPU)
		test.That(t, cfg.I2CBus, test.ShouldEqual, "1")
		test.That(t, cfg.IMUI2CAddr, test.ShouldEqual, uint16(0x69))
		test.That(t, cfg.InterruptPinName(), test.ShouldEqual, "GPIO36")
		test.That(t, cfg.LogLevel, test.ShouldEqual, "debug")
		test.That(t, cfg.MQTTBroker, test.ShouldEqual, "tcp://pi:1883")
		test.That(t, cfg.MQTTClientID, test.ShouldEqual, "stream-1")
		test.That(t, cfg.MQTTTopic, test.ShouldEqual, "imu/attitude")
		test.That(t, cfg.WebServerPort, test.ShouldEqual, 9000)
		test.That(t, cfg.DisplayI2CBus, test.ShouldEqual, "1")
		test.That(t, cfg.DisplayI2CAddr, test.ShouldEqual, uint16(0x3C))
		test.That(t, cfg.DisplayUpdateInterval, test.ShouldEqual, 250)
	})

	t.Run("unknown key reports the line", func(t *testing.T) {
		_, err := Load(writeConfig(t, "SENSOR=mock\nGPS_BAUD_RATE=9600\n"))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "config line 2")
		test.That(t, err.Error(), test.ShouldContainSubstring, "GPS_BAUD_RATE")
	})

	t.Run("malformed line", func(t *testing.T) {
		_, err := Load(writeConfig(t, "SENSOR\n"))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid config line 1")
	})

	t.Run("bad values", func(t *testing.T) {
		for _, body := range []string{
			"SENSOR=bno055",
			"IMU_I2C_ADDR=zz",
			"GPIO_INT_PIN=40",
			"WEB_SERVER_PORT=70000",
			"LOG_LEVEL=loud",
			"DISPLAY_I2C_ADDR=0x3C\nDISPLAY_UPDATE_INTERVAL=0",
			"MQTT_BROKER=tcp://pi:1883\nMQTT_TOPIC=",
		} {
			_, err := Load(writeConfig(t, body))
			test.That(t, err, test.ShouldNotBeNil)
		}
	})
}
