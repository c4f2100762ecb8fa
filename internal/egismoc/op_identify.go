package egismoc

import "context"

// identifyVerifyArgs selects between the identify and verify paths, which
// share everything up through the sensor's on-device match decision
// (spec.md §4.E "Identify"/"Verify") and differ only in how the match is
// reported: identify looks the matched PrintID up in an arbitrary
// gallery, verify compares it against one specific reference Print.
type identifyVerifyArgs struct {
	isIdentify bool
	gallery    []Print
	reference  Print
}

// runIdentifyVerify presents the current registry to the sensor as the
// candidate set, waits for a finger, and classifies the device's match
// decision.
func runIdentifyVerify(ctx context.Context, t Transport, args identifyVerifyArgs, fw Framework) error {
	registry, err := runList(ctx, t)
	if err != nil {
		return err
	}
	if registry.IsEmpty() {
		return newErr(KindDataNotFound, "identify/verify: no prints enrolled")
	}

	if _, err := ExchangeBody(ctx, t, cmdSensorReset); err != nil {
		return wrapErr(KindGeneral, "identify/verify: sensor reset", err)
	}
	if _, err := ExchangeBody(ctx, t, cmdSensorIdentify); err != nil {
		return wrapErr(KindGeneral, "identify/verify: start", err)
	}

	fw.ReportFingerStatus(FingerStatusNeeded)
	if err := t.WaitFinger(ctx); err != nil {
		return wrapErr(KindGeneral, "identify/verify: wait for finger", err)
	}
	fw.ReportFingerStatus(FingerStatusPresent)

	if _, err := ExchangeBody(ctx, t, cmdSensorCheck); err != nil {
		return wrapErr(KindGeneral, "identify/verify: sensor check", err)
	}

	body := BuildCheckBody(registry)
	reply, err := ExchangeBody(ctx, t, body)
	if err != nil {
		return wrapErr(KindGeneral, "identify/verify: check", err)
	}

	switch {
	case ValidatePrefix(reply, rspIdentifyMatchPrefix) && ValidateSuffix(reply, rspIdentifyMatchSuffix):
		end := identifyResponsePrintIDOffset + fingerprintIDSize
		if len(reply) < end {
			return fmtProtocolError("identify/verify match reply too short")
		}
		matchedID := NewPrintID(reply[identifyResponsePrintIDOffset:end])
		matchedPrint := PrintFromID(matchedID)

		if args.isIdentify {
			var found *Print
			for i := range args.gallery {
				if args.gallery[i].Equal(matchedPrint) {
					found = &args.gallery[i]
					break
				}
			}
			if _, err := ExchangeBody(ctx, t, cmdSensorReset); err != nil {
				return wrapErr(KindGeneral, "identify/verify: complete sensor reset", err)
			}
			fw.IdentifyReport(found, &matchedPrint, nil)
			return nil
		}

		refID, err := IDFromPrint(args.reference)
		if err != nil {
			return err
		}
		if _, err := ExchangeBody(ctx, t, cmdSensorReset); err != nil {
			return wrapErr(KindGeneral, "identify/verify: complete sensor reset", err)
		}
		fw.VerifyReport(refID == matchedID, &matchedPrint, nil)
		return nil

	case ValidatePrefix(reply, rspIdentifyNotmatchPrefix):
		if _, err := ExchangeBody(ctx, t, cmdSensorReset); err != nil {
			return wrapErr(KindGeneral, "identify/verify: complete sensor reset", err)
		}
		if args.isIdentify {
			fw.IdentifyReport(nil, nil, nil)
		} else {
			fw.VerifyReport(false, nil, nil)
		}
		return nil

	default:
		return fmtProtocolError("identify/verify reply")
	}
}
