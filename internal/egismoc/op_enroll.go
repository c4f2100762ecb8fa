package egismoc

import "context"

// runEnroll drives the capture-retry loop described in spec.md §4.E
// "Enroll": probe the sensor for a duplicate of the finger about to be
// enrolled, then capture EnrollTimes stages of the same finger, and only
// then commit the new PrintID. The duplicate check runs before
// enroll-start and the capture loop so that a duplicate abort never
// reaches the device's commit path.
func runEnroll(ctx context.Context, t Transport, newPrint Print, gen UserIDGenerator, fw Framework) (*Print, error) {
	registry, err := runList(ctx, t)
	if err != nil {
		return nil, err
	}
	if registry.Len() >= MaxEnrolledPrints {
		return nil, newErr(KindDataFull, "enroll: device already at maximum enrolled prints")
	}

	if _, err := ExchangeBody(ctx, t, cmdSensorReset); err != nil {
		return nil, wrapErr(KindGeneral, "enroll: sensor reset", err)
	}
	if _, err := ExchangeBody(ctx, t, cmdSensorEnroll); err != nil {
		return nil, wrapErr(KindGeneral, "enroll: start enrollment", err)
	}

	fw.ReportFingerStatus(FingerStatusNeeded)
	if err := t.WaitFinger(ctx); err != nil {
		return nil, wrapErr(KindGeneral, "enroll: wait for finger", err)
	}
	fw.ReportFingerStatus(FingerStatusPresent)

	if _, err := ExchangeBody(ctx, t, cmdSensorCheck); err != nil {
		return nil, wrapErr(KindGeneral, "enroll: sensor check", err)
	}

	checkBody := BuildCheckBody(registry)
	checkReply, err := ExchangeBody(ctx, t, checkBody)
	if err != nil {
		return nil, wrapErr(KindGeneral, "enroll: duplicate check", err)
	}
	if !ValidatePrefix(checkReply, rspCheckNotYetEnrolledPrefix) {
		return nil, newErr(KindDataDuplicate, "enroll: finger already enrolled")
	}

	if _, err := ExchangeBody(ctx, t, cmdEnrollStarting); err != nil {
		return nil, wrapErr(KindGeneral, "enroll: signal capture start", err)
	}

	stage := 0
	for stage < EnrollTimes {
		if _, err := ExchangeBody(ctx, t, cmdSensorReset); err != nil {
			return nil, wrapErr(KindGeneral, "enroll: capture sensor reset", err)
		}
		if _, err := ExchangeBody(ctx, t, cmdSensorStartCapture); err != nil {
			return nil, wrapErr(KindGeneral, "enroll: start capture", err)
		}

		fw.ReportFingerStatus(FingerStatusNeeded)
		if err := t.WaitFinger(ctx); err != nil {
			return nil, wrapErr(KindGeneral, "enroll: wait for finger", err)
		}
		fw.ReportFingerStatus(FingerStatusPresent)

		reply, err := ExchangeBody(ctx, t, cmdReadCapture)
		if err != nil {
			return nil, wrapErr(KindGeneral, "enroll: read capture", err)
		}

		switch {
		case ValidatePrefix(reply, rspReadSuccessPrefix) && ValidateSuffix(reply, rspReadSuccessSuffix):
			stage++
			fw.EnrollProgress(stage, nil, nil)
		case ValidatePrefix(reply, rspReadOffcenterPrefix) && ValidateSuffix(reply, rspReadOffcenterSuffix):
			retryErr := newErr(KindRetryCenterFinger, "enroll: finger off-center, try again")
			fw.EnrollProgress(stage, nil, retryErr)
		case ValidatePrefix(reply, rspReadDirtyPrefix):
			retryErr := newErr(KindRetryRemoveFinger, "enroll: sensor read unclear, clean sensor and retry")
			fw.EnrollProgress(stage, nil, retryErr)
		default:
			retryErr := newErr(KindRetryGeneric, "enroll: capture not accepted, try again")
			fw.EnrollProgress(stage, nil, retryErr)
		}
	}

	if _, err := ExchangeBody(ctx, t, cmdCommitStarting); err != nil {
		return nil, wrapErr(KindGeneral, "enroll: signal commit start", err)
	}

	id := NewEnrolledID(gen, newPrint)
	newPrintBody := append(append([]byte{}, cmdNewPrintPrefix...), id[:]...)
	if _, err := ExchangeBody(ctx, t, newPrintBody); err != nil {
		return nil, wrapErr(KindGeneral, "enroll: commit new print", err)
	}

	if _, err := ExchangeBody(ctx, t, cmdSensorReset); err != nil {
		return nil, wrapErr(KindGeneral, "enroll: commit sensor reset", err)
	}

	finished := PrintFromID(id)
	return &finished, nil
}
