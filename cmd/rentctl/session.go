package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
	"vehiclerental/internal/wizard"
)

var (
	errBack = errors.New("back")
	errQuit = errors.New("quit")
)

// session renders the wizard as line prompts. "<" goes back one step, "q" quits.
type session struct {
	m   *wizard.Machine
	in  *bufio.Scanner
	out io.Writer
}

func newSession(m *wizard.Machine, r io.Reader, w io.Writer) *session {
	return &session{m: m, in: bufio.NewScanner(r), out: w}
}

func (s *session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, `Book a vehicle. Enter "<" to go back, "q" to quit.`)
	for {
		d := s.m.Draft()
		var err error
		switch d.Step {
		case wizard.StepDetails:
			err = s.details()
		case wizard.StepWheelClass:
			err = s.wheelClass()
		case wizard.StepCategory:
			err = s.category(ctx)
		case wizard.StepModel:
			err = s.model(ctx)
		case wizard.StepDates:
			err = s.dates()
		case wizard.StepReview:
			err = s.review(ctx)
		case wizard.StepSuccess:
			b := d.Booking
			fmt.Fprintf(s.out, "Booking #%d confirmed: %s %s, vehicle %d, %s.\n",
				b.ID, b.Customer.FirstName, b.Customer.LastName, b.VehicleID, b.Range)
			return nil
		}
		switch {
		case errors.Is(err, errQuit):
			fmt.Fprintln(s.out, "Booking cancelled.")
			return nil
		case errors.Is(err, errBack):
			if _, err := s.m.Retreat(); err != nil {
				return err
			}
		case err != nil:
			return err
		}
	}
}

func (s *session) details() error {
	d := s.m.Draft()
	first, err := s.ask("First name", d.FirstName)
	if err != nil {
		return err
	}
	last, err := s.ask("Last name", d.LastName)
	if err != nil {
		return err
	}
	if _, err := s.m.UpdateField(wizard.FieldFirstName, first); err != nil {
		return err
	}
	if _, err := s.m.UpdateField(wizard.FieldLastName, last); err != nil {
		return err
	}
	return s.advance()
}

func (s *session) wheelClass() error {
	raw, err := s.ask("Number of wheels (2 or 4)", "")
	if err != nil {
		return err
	}
	n, _ := strconv.Atoi(raw)
	if _, err := s.m.UpdateField(wizard.FieldWheelClass, domaincatalog.WheelClass(n)); err != nil {
		return err
	}
	return s.advance()
}

func (s *session) category(ctx context.Context) error {
	types, err := s.m.VehicleTypeOptions(ctx)
	if err != nil {
		return err
	}
	labels := make([]string, len(types))
	for i, t := range types {
		labels[i] = t.Name
	}
	i, err := s.choose("Vehicle type", labels)
	if err != nil {
		return err
	}
	if i >= 0 {
		if _, err := s.m.UpdateField(wizard.FieldVehicleType, types[i]); err != nil {
			return err
		}
	}
	return s.advance()
}

func (s *session) model(ctx context.Context) error {
	vehicles, err := s.m.VehicleOptions(ctx)
	if err != nil {
		return err
	}
	if len(vehicles) == 0 {
		fmt.Fprintln(s.out, "No vehicles of this type are available right now.")
		return errBack
	}
	labels := make([]string, len(vehicles))
	for i, v := range vehicles {
		labels[i] = fmt.Sprintf("%s (%s per day)", v.Name, v.PricePerDay)
	}
	i, err := s.choose("Vehicle", labels)
	if err != nil {
		return err
	}
	if i >= 0 {
		if _, err := s.m.UpdateField(wizard.FieldVehicle, vehicles[i]); err != nil {
			return err
		}
	}
	return s.advance()
}

func (s *session) dates() error {
	rawStart, err := s.ask("Start date (YYYY-MM-DD)", "")
	if err != nil {
		return err
	}
	rawEnd, err := s.ask("End date (YYYY-MM-DD)", "")
	if err != nil {
		return err
	}
	var r daterange.DateRange
	if r.Start, err = parseDay(rawStart); err != nil {
		fmt.Fprintln(s.out, "  Start date:", err)
		return nil
	}
	if r.End, err = parseDay(rawEnd); err != nil {
		fmt.Fprintln(s.out, "  End date:", err)
		return nil
	}
	if _, err := s.m.UpdateField(wizard.FieldRange, r); err != nil {
		return err
	}
	return s.advance()
}

var editTargets = map[string]wizard.Step{
	"details": wizard.StepDetails,
	"wheels":  wizard.StepWheelClass,
	"type":    wizard.StepCategory,
	"vehicle": wizard.StepModel,
	"dates":   wizard.StepDates,
}

func (s *session) review(ctx context.Context) error {
	d := s.m.Draft()
	q := d.Quote()
	fmt.Fprintf(s.out, "\nReview\n  Name:    %s %s\n  Vehicle: %s (%s)\n  Dates:   %s\n  Price:   %d days x %s = %s\n",
		d.FirstName, d.LastName, d.Vehicle.Name, d.VehicleType.Name, d.Range, q.Days, q.PerDay, q.Total)
	if msg, ok := d.Errors[wizard.FieldSubmit]; ok {
		fmt.Fprintln(s.out, "  !", msg)
	}
	answer, err := s.ask("Confirm (y), or edit details/wheels/type/vehicle/dates", "")
	if err != nil {
		return err
	}
	answer = strings.ToLower(answer)
	if step, ok := editTargets[answer]; ok {
		_, err := s.m.Edit(step)
		return err
	}
	if answer != "y" && answer != "yes" {
		fmt.Fprintf(s.out, "  Unknown choice %q\n", answer)
		return nil
	}
	fmt.Fprintln(s.out, "Submitting...")
	if _, err := s.m.Submit(ctx); errors.Is(err, wizard.ErrDiscarded) {
		return err
	}
	return nil
}

func (s *session) advance() error {
	d, err := s.m.Advance()
	if err != nil {
		return err
	}
	printErrors(s.out, d.Errors)
	return nil
}

// ask prompts once; an empty answer keeps def.
func (s *session) ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(s.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(s.out, "%s: ", label)
	}
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	line := strings.TrimSpace(s.in.Text())
	switch line {
	case "<":
		return "", errBack
	case "q":
		return "", errQuit
	case "":
		return def, nil
	}
	return line, nil
}

// choose lists options and returns the picked index, or -1 for an invalid pick.
func (s *session) choose(label string, options []string) (int, error) {
	for i, opt := range options {
		fmt.Fprintf(s.out, "  %d) %s\n", i+1, opt)
	}
	raw, err := s.ask(label, "")
	if err != nil {
		return -1, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > len(options) {
		return -1, nil
	}
	return n - 1, nil
}

func printErrors(w io.Writer, errs map[wizard.Field]string) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintln(w, "  !", errs[wizard.Field(f)])
	}
}

func parseDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return daterange.ParseDay(raw)
}
