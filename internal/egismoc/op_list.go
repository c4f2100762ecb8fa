package egismoc

import "context"

// runList reads the device's current set of enrolled PrintIds (spec.md
// §4.D). The list subcommand takes no variable body.
func runList(ctx context.Context, t Transport) (EnrolledRegistry, error) {
	reply, err := ExchangeBody(ctx, t, cmdList)
	if err != nil {
		return EnrolledRegistry{}, wrapErr(KindGeneral, "list enrolled prints", err)
	}
	return ParseListReply(reply), nil
}

// runDelete removes a single enrolled Print, identified by its PrintID, by
// first refreshing the registry and failing fast if the device reports no
// enrollments at all.
func runDelete(ctx context.Context, t Transport, target Print) error {
	registry, err := runList(ctx, t)
	if err != nil {
		return err
	}
	if registry.IsEmpty() {
		return newErr(KindDataNotFound, "delete: no prints enrolled")
	}

	id, err := IDFromPrint(target)
	if err != nil {
		return err
	}

	body := BuildDeleteBody(targetsForDelete(registry, &id))
	reply, err := ExchangeBody(ctx, t, body)
	if err != nil {
		return wrapErr(KindGeneral, "delete print", err)
	}
	if !ValidatePrefix(reply, rspDeleteSuccessPrefix) {
		return fmtProtocolError("delete reply")
	}
	return nil
}

// runClearStorage deletes every enrolled PrintID and confirms the device
// reports an empty registry afterward (spec.md §4.D "ClearStorage": a
// post-clear registry that is not empty is a protocol error, not a
// transport error, since the device accepted the delete command).
func runClearStorage(ctx context.Context, t Transport) error {
	registry, err := runList(ctx, t)
	if err != nil {
		return err
	}
	if registry.IsEmpty() {
		return newErr(KindDataNotFound, "clear storage: no prints enrolled")
	}

	body := BuildDeleteBody(targetsForDelete(registry, nil))
	reply, err := ExchangeBody(ctx, t, body)
	if err != nil {
		return wrapErr(KindGeneral, "clear storage", err)
	}
	if !ValidatePrefix(reply, rspDeleteSuccessPrefix) {
		return fmtProtocolError("clear storage reply")
	}

	after, err := runList(ctx, t)
	if err != nil {
		return err
	}
	if !after.IsEmpty() {
		return newErr(KindProtocol, "clear storage: registry not empty after clearing")
	}
	return nil
}
