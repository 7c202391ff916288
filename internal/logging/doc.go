// Package logging builds the logrus loggers handed to every component.
package logging
