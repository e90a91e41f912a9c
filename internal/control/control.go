package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"iotdash/internal/models"
	"iotdash/internal/notify"
	"iotdash/internal/storage"
)

// StorageKey is the fixed key the widget descriptors are persisted under
const StorageKey = "control:widgets"

var (
	// ErrNotFound is returned when a widget id does not exist
	ErrNotFound = errors.New("widget not found")
	// ErrDeviceOffline rejects interaction with a widget whose device
	// is not online
	ErrDeviceOffline = errors.New("device is not online")
	// ErrBusy rejects interaction while a command is already in flight
	ErrBusy = errors.New("command already in flight")
	// ErrNotControllable is returned when a device has no command types
	ErrNotControllable = errors.New("device is not controllable")
	// ErrAlreadyAdded is returned when the device already has a widget
	ErrAlreadyAdded = errors.New("device already has a control widget")
)

// DeviceDirectory is the directory lookup the reconciler depends on
type DeviceDirectory interface {
	ListControllableDevices(ctx context.Context) ([]models.Device, error)
	GetDeviceDetails(ctx context.Context, deviceID string) (models.Device, error)
}

// CommandSender submits device commands
type CommandSender interface {
	SendCommand(ctx context.Context, deviceID string, cmd models.Command) error
}

// descriptor is the persisted form of a widget: the cached device fields
// plus state, without live status
type descriptor struct {
	ID           string             `json:"id"`
	DeviceID     string             `json:"deviceId"`
	DeviceName   string             `json:"deviceName"`
	DeviceType   string             `json:"deviceType"`
	CommandTypes []string           `json:"commandTypes"`
	State        json.RawMessage    `json:"state"`
	ControlType  models.ControlType `json:"controlType"`
}

// sendState is a widget's command status
type sendState int

const (
	statusIdle sendState = iota
	statusPending
)

// pendingOp captures the pre-toggle value so a failed switch command can
// restore it without relying on stale captures
type pendingOp struct {
	state sendState
	prev  bool
}

// Reconciler maintains the control-widget collection: load-time
// reconciliation against the live directory, optimistic command protocols
// with rollback, and write-through persistence.
type Reconciler struct {
	mu        sync.RWMutex
	store     storage.Store
	directory DeviceDirectory
	sender    CommandSender
	notifier  notify.Notifier
	widgets   []models.ControlWidget
	status    map[string]pendingOp
}

// New creates a reconciler over the given collaborators
func New(store storage.Store, directory DeviceDirectory, sender CommandSender, notifier notify.Notifier) *Reconciler {
	return &Reconciler{
		store:     store,
		directory: directory,
		sender:    sender,
		notifier:  notifier,
		status:    make(map[string]pendingOp),
	}
}

// Load reads persisted descriptors and reconciles each against the live
// directory. A failed lookup, or a live device with no command types,
// falls back to the cached snapshot marked offline; the widget is never
// dropped. Input order is preserved.
func (r *Reconciler) Load(ctx context.Context) error {
	data, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("read widgets: %w", err)
	}
	if data == nil {
		log.Printf("CONTROL: No persisted widgets found")
		return nil
	}
	var descriptors []descriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		log.Printf("CONTROL: Corrupt widget collection, starting empty: %v", err)
		return nil
	}

	widgets := make([]models.ControlWidget, 0, len(descriptors))
	for _, d := range descriptors {
		w := models.ControlWidget{
			ID:          d.ID,
			ControlType: d.ControlType,
		}
		if err := applyState(&w, d.State); err != nil {
			log.Printf("CONTROL: Widget %s has malformed state, using defaults: %v", d.ID, err)
		}

		device, err := r.directory.GetDeviceDetails(ctx, d.DeviceID)
		if err != nil || len(device.CommandTypes) == 0 {
			if err != nil {
				log.Printf("CONTROL: Directory lookup failed for %s, keeping cached snapshot: %v", d.DeviceID, err)
			} else {
				log.Printf("CONTROL: Device %s reports no command types, keeping cached snapshot", d.DeviceID)
			}
			w.Device = models.Device{
				ID:           d.DeviceID,
				Name:         fallbackName(d.DeviceName),
				Type:         fallbackType(d.DeviceType),
				Status:       "offline",
				CommandTypes: d.CommandTypes,
			}
		} else {
			w.Device = device
		}
		widgets = append(widgets, w)
	}

	r.mu.Lock()
	r.widgets = widgets
	r.mu.Unlock()
	log.Printf("CONTROL: Loaded %d widgets", len(widgets))
	return nil
}

func fallbackName(name string) string {
	if name == "" {
		return "Unknown Device"
	}
	return name
}

func fallbackType(t string) string {
	if t == "" {
		return "Unknown"
	}
	return t
}

// applyState decodes the persisted bool-or-number state field
func applyState(w *models.ControlWidget, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	switch w.ControlType {
	case models.ControlSlider:
		var level float64
		if err := json.Unmarshal(raw, &level); err != nil {
			return err
		}
		w.Level = int(level)
	default:
		var on bool
		if err := json.Unmarshal(raw, &on); err != nil {
			return err
		}
		w.On = on
	}
	return nil
}

// Widgets returns a snapshot of the collection in stored order
func (r *Reconciler) Widgets() []models.ControlWidget {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ControlWidget, len(r.widgets))
	copy(out, r.widgets)
	return out
}

// Sending reports whether a command is in flight for the widget
func (r *Reconciler) Sending(widgetID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status[widgetID].state == statusPending
}

// AvailableDevices lists live controllable devices that do not already
// have a widget
func (r *Reconciler) AvailableDevices(ctx context.Context) ([]models.Device, error) {
	devices, err := r.directory.ListControllableDevices(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	present := make(map[string]bool, len(r.widgets))
	for _, w := range r.widgets {
		present[w.Device.ID] = true
	}
	r.mu.RUnlock()
	available := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		if !present[d.ID] {
			available = append(available, d)
		}
	}
	return available, nil
}

// Add creates a widget for a controllable device not yet represented.
// The control type is derived once here and never re-derived.
func (r *Reconciler) Add(ctx context.Context, deviceID string) (models.ControlWidget, error) {
	devices, err := r.directory.ListControllableDevices(ctx)
	if err != nil {
		return models.ControlWidget{}, err
	}
	var device models.Device
	found := false
	for _, d := range devices {
		if d.ID == deviceID {
			device = d
			found = true
			break
		}
	}
	if !found {
		return models.ControlWidget{}, ErrNotFound
	}

	controlType, ok := DeriveControlType(device.CommandTypes)
	if !ok {
		return models.ControlWidget{}, ErrNotControllable
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.widgets {
		if w.Device.ID == deviceID {
			return models.ControlWidget{}, ErrAlreadyAdded
		}
	}

	widget := models.ControlWidget{
		ID:          fmt.Sprintf("%s-%d", device.ID, time.Now().UnixMilli()),
		Device:      device,
		ControlType: controlType,
	}
	if controlType == models.ControlSlider {
		widget.Level = 50
	}

	next := append(append([]models.ControlWidget{}, r.widgets...), widget)
	if err := r.persist(ctx, next); err != nil {
		return models.ControlWidget{}, err
	}
	r.widgets = next
	log.Printf("CONTROL: Added %s widget %s for device %s", controlType, widget.ID, device.ID)
	r.notifier.Success(fmt.Sprintf("%s control added", device.Name))
	return widget, nil
}

// Remove destroys a widget and persists the collection
func (r *Reconciler) Remove(ctx context.Context, widgetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]models.ControlWidget, 0, len(r.widgets))
	found := false
	for _, w := range r.widgets {
		if w.ID == widgetID {
			found = true
			continue
		}
		next = append(next, w)
	}
	if !found {
		return ErrNotFound
	}
	if err := r.persist(ctx, next); err != nil {
		return err
	}
	r.widgets = next
	delete(r.status, widgetID)
	log.Printf("CONTROL: Removed widget %s", widgetID)
	r.notifier.Success("Control removed")
	return nil
}

// Toggle runs the switch protocol: the displayed state is left untouched
// until the command resolves, commits on success, and is restored to the
// pre-toggle value on failure.
func (r *Reconciler) Toggle(ctx context.Context, widgetID string, newState bool) error {
	r.mu.Lock()
	widget, idx := r.find(widgetID)
	if idx < 0 {
		r.mu.Unlock()
		return ErrNotFound
	}
	if widget.ControlType != models.ControlSwitch {
		r.mu.Unlock()
		return fmt.Errorf("widget %s is not a switch", widgetID)
	}
	if !widget.Device.IsOnline() {
		r.mu.Unlock()
		return ErrDeviceOffline
	}
	if r.status[widgetID].state == statusPending {
		r.mu.Unlock()
		return ErrBusy
	}
	r.status[widgetID] = pendingOp{state: statusPending, prev: widget.On}
	command := CommandForSwitch(widget.Device.CommandTypes, newState)
	r.mu.Unlock()

	err := r.sender.SendCommand(ctx, widget.Device.ID, command)

	r.mu.Lock()
	defer r.mu.Unlock()
	op := r.status[widgetID]
	r.status[widgetID] = pendingOp{state: statusIdle}
	widget, idx = r.find(widgetID)
	if idx < 0 {
		// Removed while the command was in flight
		return err
	}
	if err != nil {
		log.Printf("CONTROL: Command failed for widget %s: %v", widgetID, err)
		r.setState(ctx, idx, op.prev, widget.Level)
		r.notifier.Error("Failed to send command")
		return err
	}
	r.setState(ctx, idx, newState, widget.Level)
	r.notifier.Success(fmt.Sprintf("%s turned %s", widget.Device.Name, command))
	return nil
}

// SetLevel updates a slider's displayed value during a drag. Purely
// local: no command is sent and no send may be triggered here.
func (r *Reconciler) SetLevel(ctx context.Context, widgetID string, level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("level %d out of range", level)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	widget, idx := r.find(widgetID)
	if idx < 0 {
		return ErrNotFound
	}
	if widget.ControlType != models.ControlSlider {
		return fmt.Errorf("widget %s is not a slider", widgetID)
	}
	r.setState(ctx, idx, widget.On, level)
	return nil
}

// CommitLevel runs the slider protocol's commit: one command per commit,
// no rollback of the displayed value on failure.
func (r *Reconciler) CommitLevel(ctx context.Context, widgetID string, level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("level %d out of range", level)
	}
	r.mu.Lock()
	widget, idx := r.find(widgetID)
	if idx < 0 {
		r.mu.Unlock()
		return ErrNotFound
	}
	if widget.ControlType != models.ControlSlider {
		r.mu.Unlock()
		return fmt.Errorf("widget %s is not a slider", widgetID)
	}
	if !widget.Device.IsOnline() {
		r.mu.Unlock()
		return ErrDeviceOffline
	}
	if r.status[widgetID].state == statusPending {
		r.mu.Unlock()
		return ErrBusy
	}
	r.status[widgetID] = pendingOp{state: statusPending}
	r.setState(ctx, idx, widget.On, level)
	r.mu.Unlock()

	err := r.sender.SendCommand(ctx, widget.Device.ID, CommandForLevel(level))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[widgetID] = pendingOp{state: statusIdle}
	if err != nil {
		log.Printf("CONTROL: Command failed for widget %s: %v", widgetID, err)
		r.notifier.Error("Failed to send command")
		return err
	}
	r.notifier.Success(fmt.Sprintf("%s set to %d", widget.Device.Name, level))
	return nil
}

// find returns the widget and its index; callers hold the lock
func (r *Reconciler) find(widgetID string) (models.ControlWidget, int) {
	for i, w := range r.widgets {
		if w.ID == widgetID {
			return w, i
		}
	}
	return models.ControlWidget{}, -1
}

// setState replaces the collection with the widget's state updated and
// writes it through; callers hold the write lock
func (r *Reconciler) setState(ctx context.Context, idx int, on bool, level int) {
	next := make([]models.ControlWidget, len(r.widgets))
	copy(next, r.widgets)
	next[idx].On = on
	next[idx].Level = level
	if err := r.persist(ctx, next); err != nil {
		log.Printf("CONTROL: Failed to persist widgets: %v", err)
	}
	r.widgets = next
}

// persist serializes widget descriptors (cached device fields plus state,
// minus live status) under the fixed key; callers hold the write lock
func (r *Reconciler) persist(ctx context.Context, widgets []models.ControlWidget) error {
	descriptors := make([]descriptor, 0, len(widgets))
	for _, w := range widgets {
		var state json.RawMessage
		if w.ControlType == models.ControlSlider {
			state, _ = json.Marshal(w.Level)
		} else {
			state, _ = json.Marshal(w.On)
		}
		descriptors = append(descriptors, descriptor{
			ID:           w.ID,
			DeviceID:     w.Device.ID,
			DeviceName:   w.Device.Name,
			DeviceType:   w.Device.Type,
			CommandTypes: w.Device.CommandTypes,
			State:        state,
			ControlType:  w.ControlType,
		})
	}
	data, err := json.Marshal(descriptors)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("persist widgets: %w", err)
	}
	return nil
}
