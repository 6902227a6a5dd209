// Package docs provides the Swagger documentation for the API.
package docs

// @title           Wheel Trainer API
// @version         1.0
// @description     Trains a Custom Vision model on wheel videos: frames are extracted, stored in S3, tagged, trained and published.

// @contact.name   WheelScan Engineering
// @contact.url    https://github.com/wheelscan/go-wheel-trainer

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
